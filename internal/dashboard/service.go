package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clotilde/admin-console/internal/browser"
	"github.com/clotilde/admin-console/internal/config"
	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/pagination"
	"github.com/clotilde/admin-console/internal/refresh"
	"github.com/clotilde/admin-console/internal/render"
)

// Backend is the admin API surface the dashboard needs
type Backend interface {
	browser.PageFetcher
	FetchStats(ctx context.Context) (*models.Stats, error)
	FetchConfig(ctx context.Context) (*models.RuntimeConfig, error)
	SaveConfig(ctx context.Context, cfg models.RuntimeConfig) (*models.RuntimeConfig, error)
}

// LogView keeps the latest log table render and optionally forwards it
type LogView struct {
	mu       sync.RWMutex
	panel    render.LogsPanel
	listener func(render.LogsPanel)
}

// ShowPage stores a rendered page
func (v *LogView) ShowPage(table render.Table, info pagination.Info) {
	v.set(render.LogsPanel{Loaded: true, Table: table, Info: info})
}

// ShowError replaces the table with the error placeholder
func (v *LogView) ShowError(err error) {
	v.set(render.LogsPanel{Loaded: true, Failed: true})
}

// Panel returns the latest render
func (v *LogView) Panel() render.LogsPanel {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.panel
}

// SetListener registers fn to receive every render. fn runs on the
// rendering goroutine and must not call back into the browser.
func (v *LogView) SetListener(fn func(render.LogsPanel)) {
	v.mu.Lock()
	v.listener = fn
	v.mu.Unlock()
}

func (v *LogView) set(p render.LogsPanel) {
	v.mu.Lock()
	v.panel = p
	fn := v.listener
	v.mu.Unlock()

	if fn != nil {
		fn(p)
	}
}

// Service ties the log browser, the stats panel and the config editor
// to one admin API backend
type Service struct {
	backend   Backend
	view      *LogView
	browser   *browser.LogBrowser
	refresher *refresh.Refresher
	autoStart bool

	mu     sync.RWMutex
	ctx    context.Context
	stats  *models.Stats
	config *models.RuntimeConfig
	flash  *render.Flash
}

// NewService creates a new dashboard service
func NewService(backend Backend, cfg *config.Config) *Service {
	s := &Service{
		backend:   backend,
		view:      &LogView{},
		autoStart: cfg.Refresh.Enabled,
		ctx:       context.Background(),
	}
	s.browser = browser.New(backend, s.view, browser.WithLocation(cfg.Display.Location()))
	s.refresher = refresh.NewRefresher(cfg.Refresh.Interval, s.LoadStats, s.browser)
	return s
}

// Start performs the initial loads and starts auto refresh when enabled.
// ctx bounds the refresh loop for the lifetime of the service.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.EnsureLoaded(ctx)
	if s.autoStart {
		s.refresher.Start(ctx)
	}
}

// Stop halts auto refresh.
func (s *Service) Stop() {
	s.refresher.Stop()
}

// Browser returns the log browser
func (s *Service) Browser() *browser.LogBrowser {
	return s.browser
}

// View returns the log view
func (s *Service) View() *LogView {
	return s.view
}

// EnsureLoaded loads whatever has never been loaded.
func (s *Service) EnsureLoaded(ctx context.Context) {
	if !s.view.Panel().Loaded {
		s.browser.LoadPage(ctx)
	}
	if s.Stats() == nil {
		s.LoadStats(ctx)
	}
	if s.Config() == nil {
		s.LoadConfig(ctx)
	}
}

// LoadStats refreshes the stats panel. On failure the previous values
// stay on screen.
func (s *Service) LoadStats(ctx context.Context) {
	stats, err := s.backend.FetchStats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stats")
		return
	}

	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// Stats returns the last loaded stats, nil before the first success.
func (s *Service) Stats() *models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// LoadConfig loads the runtime config. On failure the editor stays
// blank and no notice is shown.
func (s *Service) LoadConfig(ctx context.Context) {
	cfg, err := s.backend.FetchConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// Config returns the last loaded config.
func (s *Service) Config() *models.RuntimeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SaveConfig validates cfg locally and then saves it upstream.
func (s *Service) SaveConfig(ctx context.Context, cfg models.RuntimeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	saved, err := s.backend.SaveConfig(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save config")
		return err
	}

	s.mu.Lock()
	s.config = saved
	s.mu.Unlock()

	log.Info().
		Str("standard_model", saved.StandardModel).
		Str("premium_model", saved.PremiumModel).
		Int("category_prompts", len(saved.CategoryPrompts)).
		Msg("Runtime config saved")
	return nil
}

// SetFlash queues a notice for the next page render.
func (s *Service) SetFlash(kind, message string) {
	s.mu.Lock()
	s.flash = &render.Flash{Kind: kind, Message: message}
	s.mu.Unlock()
}

// PopFlash returns and clears the queued notice.
func (s *Service) PopFlash() *render.Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flash
	s.flash = nil
	return f
}

// SetAutoRefresh starts or stops the refresh loop.
func (s *Service) SetAutoRefresh(on bool) {
	if on {
		s.mu.RLock()
		ctx := s.ctx
		s.mu.RUnlock()
		s.refresher.Start(ctx)
	} else {
		s.refresher.Stop()
	}
}

// AutoRefresh reports whether the refresh loop runs.
func (s *Service) AutoRefresh() bool {
	return s.refresher.Running()
}

// RefreshInterval returns the refresh period
func (s *Service) RefreshInterval() time.Duration {
	return s.refresher.Interval()
}

// Page assembles the full page model. It consumes the queued notice.
func (s *Service) Page(csrfToken string) render.Page {
	return render.Page{
		Stats:          s.Stats(),
		Filters:        s.browser.Filters(),
		Logs:           s.view.Panel(),
		Config:         s.Config(),
		AutoRefresh:    s.AutoRefresh(),
		RefreshSeconds: int(s.RefreshInterval() / time.Second),
		CSRFToken:      csrfToken,
		Flash:          s.PopFlash(),
	}
}
