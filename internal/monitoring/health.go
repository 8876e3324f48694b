package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// ComponentHealth represents health information for a single component
type ComponentHealth struct {
	Name           string                 `json:"name"`
	Status         HealthStatus           `json:"status"`
	Message        string                 `json:"message,omitempty"`
	LastChecked    time.Time              `json:"last_checked"`
	ResponseTimeMs int64                  `json:"response_time_ms"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

// SystemHealth represents overall console health
type SystemHealth struct {
	Status        HealthStatus                `json:"status"`
	Timestamp     time.Time                   `json:"timestamp"`
	Version       string                      `json:"version"`
	UptimeSeconds int64                       `json:"uptime_seconds"`
	Components    map[string]*ComponentHealth `json:"components"`
	GoVersion     string                      `json:"go_version"`
	NumGoroutines int                         `json:"num_goroutines"`
}

// HealthChecker defines the interface for health checks
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) (*ComponentHealth, error)
}

// HealthMonitor runs the registered checks
type HealthMonitor struct {
	mu        sync.RWMutex
	checkers  map[string]HealthChecker
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(version string) *HealthMonitor {
	return &HealthMonitor{
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// RegisterChecker registers a health checker
func (h *HealthMonitor) RegisterChecker(checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
}

// GetHealth runs all checks in parallel and folds them into one status.
func (h *HealthMonitor) GetHealth(ctx context.Context) *SystemHealth {
	h.mu.RLock()
	checkers := make([]HealthChecker, 0, len(h.checkers))
	for _, c := range h.checkers {
		checkers = append(checkers, c)
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	health := &SystemHealth{
		Status:        HealthStatusOK,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Components:    make(map[string]*ComponentHealth, len(checkers)),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			component, err := c.Check(ctx)
			if component == nil {
				component = &ComponentHealth{Name: c.Name(), Status: HealthStatusOK}
			}
			if err != nil {
				component.Status = HealthStatusDown
				component.Message = err.Error()
			}
			component.ResponseTimeMs = time.Since(start).Milliseconds()
			component.LastChecked = time.Now().UTC()

			mu.Lock()
			health.Components[c.Name()] = component
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	for _, component := range health.Components {
		switch component.Status {
		case HealthStatusDown:
			health.Status = HealthStatusDown
		case HealthStatusDegraded:
			if health.Status != HealthStatusDown {
				health.Status = HealthStatusDegraded
			}
		}
	}

	return health
}

// HTTPHandler returns an HTTP handler for health checks
func (h *HealthMonitor) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth(r.Context())

		statusCode := http.StatusOK
		if health.Status != HealthStatusOK {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}
