package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LogReloader is the part of the log browser the refresher drives
type LogReloader interface {
	Offset() int
	LoadPage(ctx context.Context)
}

// StatsLoader reloads the statistics panel
type StatsLoader func(ctx context.Context)

// Refresher periodically reloads stats, and the log table while the
// operator is looking at the first page
type Refresher struct {
	interval  time.Duration
	loadStats StatsLoader
	logs      LogReloader

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a new refresher
func NewRefresher(interval time.Duration, loadStats StatsLoader, logs LogReloader) *Refresher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Refresher{
		interval:  interval,
		loadStats: loadStats,
		logs:      logs,
	}
}

// Start begins the refresh loop. Calling Start on a running refresher
// does nothing.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx, r.done)
	log.Info().Dur("interval", r.interval).Msg("Auto refresh started")
}

// Stop ends the refresh loop and waits for an in-flight tick to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Auto refresh stopped")
}

// Running reports whether the loop is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Interval returns the tick period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Tick performs one refresh. Logs are reloaded only on the first page
// so a page the operator navigated to does not shift under them.
func (r *Refresher) Tick(ctx context.Context) {
	if r.loadStats != nil {
		r.loadStats(ctx)
	}
	if r.logs != nil && r.logs.Offset() == 0 {
		r.logs.LoadPage(ctx)
	}
}

func (r *Refresher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}
