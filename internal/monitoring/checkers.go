package monitoring

import (
	"context"

	"github.com/clotilde/admin-console/internal/cache"
)

// AdminAPIChecker probes the proxy admin API
type AdminAPIChecker struct {
	probe func(ctx context.Context) error
}

// NewAdminAPIChecker creates a checker around probe, typically a stats
// fetch.
func NewAdminAPIChecker(probe func(ctx context.Context) error) *AdminAPIChecker {
	return &AdminAPIChecker{probe: probe}
}

// Name returns the name of the checker
func (a *AdminAPIChecker) Name() string {
	return "admin_api"
}

// Check performs the health check
func (a *AdminAPIChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	health := &ComponentHealth{Name: a.Name(), Status: HealthStatusOK}
	if err := a.probe(ctx); err != nil {
		return health, err
	}
	return health, nil
}

// StatsCacheChecker reports stats cache counters. It never fails.
type StatsCacheChecker struct {
	stats func() cache.CacheStats
}

// NewStatsCacheChecker creates a new stats cache checker
func NewStatsCacheChecker(stats func() cache.CacheStats) *StatsCacheChecker {
	return &StatsCacheChecker{stats: stats}
}

// Name returns the name of the checker
func (s *StatsCacheChecker) Name() string {
	return "stats_cache"
}

// Check performs the health check
func (s *StatsCacheChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	st := s.stats()
	return &ComponentHealth{
		Name:   s.Name(),
		Status: HealthStatusOK,
		Details: map[string]interface{}{
			"hits":     st.Hits,
			"misses":   st.Misses,
			"size":     st.Size,
			"hit_rate": st.HitRate,
		},
	}, nil
}
