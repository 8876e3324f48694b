// Package browser holds the log table state machine: pagination offset,
// active filters and the set of expanded rows.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/pagination"
	"github.com/clotilde/admin-console/internal/render"
)

// PageFetcher retrieves one page of log entries
type PageFetcher interface {
	FetchLogs(ctx context.Context, q models.LogQuery) (*models.LogsPage, error)
}

// View receives render results. Implementations must not call back into
// the LogBrowser.
type View interface {
	ShowPage(table render.Table, info pagination.Info)
	ShowError(err error)
}

// State is a read-only copy of the browser state
type State struct {
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
	Filters  models.FilterSet `json:"filters"`
	Expanded []string         `json:"expanded"`
}

// LogBrowser owns the pagination window, the filters and the expanded
// rows, and renders fetched pages through a View.
type LogBrowser struct {
	fetcher PageFetcher
	view    View
	loc     *time.Location

	mu       sync.Mutex
	window   pagination.Window
	total    int
	filters  models.FilterSet
	expanded map[string]bool

	// page on screen, kept so expand/collapse re-renders without a fetch;
	// cleared when a load fails
	entries []models.LogEntry
	info    pagination.Info
	loaded  bool

	// seq numbers each LoadPage; rendered is the newest seq applied
	seq      uint64
	rendered uint64
}

// Option customizes a LogBrowser
type Option func(*LogBrowser)

// WithFilters sets the initial filters.
func WithFilters(f models.FilterSet) Option {
	return func(b *LogBrowser) { b.filters = f }
}

// WithLocation sets the display timezone.
func WithLocation(loc *time.Location) Option {
	return func(b *LogBrowser) { b.loc = loc }
}

// WithLimit overrides the page size.
func WithLimit(limit int) Option {
	return func(b *LogBrowser) { b.window = pagination.NewWindow(limit) }
}

// New creates a browser on the first page with no filters
func New(fetcher PageFetcher, view View, opts ...Option) *LogBrowser {
	b := &LogBrowser{
		fetcher:  fetcher,
		view:     view,
		loc:      time.Local,
		window:   pagination.NewWindow(pagination.DefaultLimit),
		expanded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadPage fetches the current window and renders it. Failures render
// the error placeholder and leave the state untouched; they are logged
// and not returned.
func (b *LogBrowser) LoadPage(ctx context.Context) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	query := models.LogQuery{
		Limit:   b.window.Limit,
		Offset:  b.window.Offset,
		Filters: b.filters,
	}
	b.mu.Unlock()

	page, err := b.fetcher.FetchLogs(ctx, query)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq < b.rendered {
		log.Debug().Uint64("seq", seq).Uint64("rendered", b.rendered).Msg("Discarding stale log page")
		return
	}
	b.rendered = seq

	if err != nil {
		log.Error().Err(err).Int("offset", query.Offset).Msg("Failed to load logs")
		b.entries = nil
		b.info = pagination.Info{}
		b.loaded = false
		b.view.ShowError(err)
		return
	}

	b.total = page.Total
	b.entries = page.Entries
	b.info = pagination.Describe(page.Offset, page.Count, page.Total)
	b.loaded = true
	b.view.ShowPage(render.BuildTable(b.entries, b.expanded, b.loc), b.info)
}

// NextPage advances one page. It does not check the total; a page past
// the end renders as empty.
func (b *LogBrowser) NextPage(ctx context.Context) {
	b.mu.Lock()
	b.window = b.window.Next()
	b.clearExpanded()
	b.mu.Unlock()

	b.LoadPage(ctx)
}

// PrevPage retreats one page, stopping at the first.
func (b *LogBrowser) PrevPage(ctx context.Context) {
	b.mu.Lock()
	b.window = b.window.Prev()
	b.clearExpanded()
	b.mu.Unlock()

	b.LoadPage(ctx)
}

// SetFilters replaces the filters and returns to the first page.
func (b *LogBrowser) SetFilters(ctx context.Context, f models.FilterSet) {
	b.mu.Lock()
	b.filters = f
	b.window = b.window.Reset()
	b.clearExpanded()
	b.mu.Unlock()

	b.LoadPage(ctx)
}

// ClearFilters is SetFilters with no filters.
func (b *LogBrowser) ClearFilters(ctx context.Context) {
	b.SetFilters(ctx, models.FilterSet{})
}

// ToggleExpand flips the expanded state of id and re-renders the page on
// screen from memory. After a failed load only the state changes.
// Toggling twice is a no-op.
func (b *LogBrowser) ToggleExpand(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.expanded[id] {
		delete(b.expanded, id)
	} else {
		b.expanded[id] = true
	}

	if b.loaded {
		b.view.ShowPage(render.BuildTable(b.entries, b.expanded, b.loc), b.info)
	}
}

// IsExpanded reports whether id is currently expanded.
func (b *LogBrowser) IsExpanded(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expanded[id]
}

// Offset returns the current pagination offset.
func (b *LogBrowser) Offset() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window.Offset
}

// Filters returns the active filters.
func (b *LogBrowser) Filters() models.FilterSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// Entries returns the entries on screen, none after a failed load.
func (b *LogBrowser) Entries() []models.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Snapshot returns a copy of the current state.
func (b *LogBrowser) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	expanded := make([]string, 0, len(b.expanded))
	for id := range b.expanded {
		expanded = append(expanded, id)
	}
	return State{
		Offset:   b.window.Offset,
		Limit:    b.window.Limit,
		Total:    b.total,
		Filters:  b.filters,
		Expanded: expanded,
	}
}

func (b *LogBrowser) clearExpanded() {
	b.expanded = make(map[string]bool)
}
