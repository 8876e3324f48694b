package models

import (
	"net/url"
	"strconv"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LogEntry is one proxied request as reported by /admin/logs
type LogEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model,omitempty"`
	Category     string    `json:"category,omitempty"`
	ResponseTime int64     `json:"response_time_ms"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Input        string    `json:"input,omitempty"`
	Output       string    `json:"output,omitempty"`
}

// HasDetail reports whether the entry carries an input or output body.
func (e LogEntry) HasDetail() bool {
	return e.Input != "" || e.Output != ""
}

// LogsPage is the /admin/logs response envelope
type LogsPage struct {
	Entries []LogEntry `json:"entries"`
	Total   int        `json:"total"`
	Offset  int        `json:"offset"`
	Count   int        `json:"count"`
	Limit   int        `json:"limit,omitempty"`
}

// FilterSet holds the optional log filters. An empty field is unset.
type FilterSet struct {
	Model     string `json:"model,omitempty" yaml:"model"`
	Status    string `json:"status,omitempty" yaml:"status"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date"`
}

// IsZero reports whether no filter is set.
func (f FilterSet) IsZero() bool {
	return f == FilterSet{}
}

// Apply adds every non-empty filter to params. Empty filters are never
// written, not even as an empty value.
func (f FilterSet) Apply(params url.Values) {
	if f.Model != "" {
		params.Set("model", f.Model)
	}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.StartDate != "" {
		params.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		params.Set("end_date", f.EndDate)
	}
}

// LogQuery is the full parameter set of one /admin/logs request
type LogQuery struct {
	Limit   int
	Offset  int
	Filters FilterSet
}

// Values encodes the query in the wire format expected by /admin/logs.
func (q LogQuery) Values() url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	q.Filters.Apply(params)
	return params
}
