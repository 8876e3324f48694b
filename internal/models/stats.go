package models

import "time"

// Stats is the /admin/stats response
type Stats struct {
	TotalRequests      int64      `json:"total_requests"`
	TotalRequestsToday int64      `json:"total_requests_today"`
	AvgResponseTimeMs  float64    `json:"avg_response_time_ms"`
	ErrorRate          float64    `json:"error_rate"`
	ModelUsage         ModelUsage `json:"model_usage"`
	Uptime             string     `json:"uptime"`
	LastRequestTime    *time.Time `json:"last_request_time,omitempty"`
}

// ModelUsage counts requests per model tier. Nano and Full are the
// legacy names still sent by older proxies.
type ModelUsage struct {
	Standard int64 `json:"standard"`
	Premium  int64 `json:"premium"`
	Nano     int64 `json:"nano"`
	Full     int64 `json:"full"`
}

// CompactCount returns the standard tier count, falling back to the
// legacy field.
func (u ModelUsage) CompactCount() int64 {
	if u.Standard == 0 {
		return u.Nano
	}
	return u.Standard
}

// FullCount returns the premium tier count, falling back to the legacy
// field.
func (u ModelUsage) FullCount() int64 {
	if u.Premium == 0 {
		return u.Full
	}
	return u.Premium
}
