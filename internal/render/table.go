// Package render turns fetched log entries into display structures.
//
// BuildTable is pure: entries and the expanded set in, a Table out. The
// HTML and terminal writers consume a Table and never see raw entries.
package render

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/clotilde/admin-console/internal/models"
)

// TimeLayout is the display format: day/month then 24h time with seconds
const TimeLayout = "02/01, 15:04:05"

// NoDetail is shown instead of the expand control for entries without
// input or output
const NoDetail = "No data"

// Variant classifies a model badge
type Variant string

const (
	VariantCompact Variant = "compact"
	VariantFull    Variant = "full"
)

// Row is the display form of one log entry: a summary line plus a
// detail panel that is present but hidden while collapsed.
type Row struct {
	ID             string  `json:"id"`
	Time           string  `json:"time"`
	Model          string  `json:"model,omitempty"`
	ModelVariant   Variant `json:"model_variant,omitempty"`
	Category       string  `json:"category,omitempty"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	Status         string  `json:"status"`
	IsError        bool    `json:"is_error"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	HasDetail      bool    `json:"has_detail"`
	Expanded       bool    `json:"expanded"`
	Input          string  `json:"input,omitempty"`
	Output         string  `json:"output,omitempty"`
}

// Table is the render model of one page. Empty is the "no entries"
// state and is distinct from a failed load, which never produces a
// Table.
type Table struct {
	Empty bool  `json:"empty"`
	Rows  []Row `json:"rows"`
}

// BuildTable renders entries in order. expanded holds the ids whose
// detail panel is visible; loc is the display timezone (nil for local).
func BuildTable(entries []models.LogEntry, expanded map[string]bool, loc *time.Location) Table {
	if len(entries) == 0 {
		return Table{Empty: true, Rows: []Row{}}
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{
			ID:             e.ID,
			Time:           FormatTime(e.Timestamp, loc),
			Model:          e.Model,
			Category:       FormatCategory(e.Category),
			ResponseTimeMs: e.ResponseTime,
			Status:         e.Status,
			IsError:        e.Status == models.StatusError,
			HasDetail:      e.HasDetail(),
			Expanded:       expanded[e.ID],
			Input:          e.Input,
			Output:         e.Output,
		}
		if e.Model != "" {
			row.ModelVariant = ModelVariant(e.Model)
		}
		if row.IsError {
			row.ErrorMessage = e.ErrorMessage
		}
		rows = append(rows, row)
	}
	return Table{Rows: rows}
}

// ModelVariant returns compact for small models (names containing
// "mini" or "nano") and full otherwise.
func ModelVariant(model string) Variant {
	if strings.Contains(model, "mini") || strings.Contains(model, "nano") {
		return VariantCompact
	}
	return VariantFull
}

// FormatCategory converts a snake_case tag to a label, e.g. web_search
// becomes "Web Search". Only the first letter of each word changes.
func FormatCategory(category string) string {
	if category == "" {
		return ""
	}
	words := strings.Split(category, "_")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatTime renders a timestamp for display. It never changes the
// stored value.
func FormatTime(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(TimeLayout)
}
