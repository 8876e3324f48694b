package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/pagination"
	"github.com/clotilde/admin-console/internal/render"
)

// fakeFetcher serves a fixed number of entries with offset/limit
// semantics and records every query it receives.
type fakeFetcher struct {
	mu      sync.Mutex
	total   int
	err     error
	queries []models.LogQuery
	withIO  bool
}

func (f *fakeFetcher) FetchLogs(ctx context.Context, q models.LogQuery) (*models.LogsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}

	entries := []models.LogEntry{}
	for i := q.Offset; i < f.total && i < q.Offset+q.Limit; i++ {
		e := models.LogEntry{ID: fmt.Sprintf("req-%d", i), Status: "success"}
		if f.withIO {
			e.Input = "q"
		}
		entries = append(entries, e)
	}
	return &models.LogsPage{Entries: entries, Total: f.total, Offset: q.Offset, Count: len(entries)}, nil
}

func (f *fakeFetcher) lastQuery() models.LogQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type recordingView struct {
	mu     sync.Mutex
	tables []render.Table
	infos  []pagination.Info
	errs   []error
}

func (v *recordingView) ShowPage(table render.Table, info pagination.Info) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tables = append(v.tables, table)
	v.infos = append(v.infos, info)
}

func (v *recordingView) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *recordingView) lastTable() render.Table {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tables[len(v.tables)-1]
}

func (v *recordingView) lastInfo() pagination.Info {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.infos[len(v.infos)-1]
}

func TestNextPageScenario(t *testing.T) {
	fetcher := &fakeFetcher{total: 120}
	view := &recordingView{}
	b := New(fetcher, view)
	ctx := context.Background()

	b.LoadPage(ctx)
	b.NextPage(ctx)

	if b.Offset() != 50 {
		t.Fatalf("expected offset 50, got %d", b.Offset())
	}
	info := view.lastInfo()
	if info.String() != "Showing 51-100 of 120 entries" {
		t.Fatalf("unexpected info %q", info.String())
	}
	if info.NextDisabled || info.PrevDisabled {
		t.Fatalf("both controls should be enabled: %+v", info)
	}
	if snap := b.Snapshot(); snap.Total != 120 || snap.Limit != 50 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestNextPagePastTheEndRendersEmpty(t *testing.T) {
	fetcher := &fakeFetcher{total: 10}
	view := &recordingView{}
	b := New(fetcher, view)

	b.NextPage(context.Background())

	if b.Offset() != 50 {
		t.Fatalf("next should advance unconditionally, got %d", b.Offset())
	}
	if !view.lastTable().Empty {
		t.Fatal("a zero-count page should render as empty")
	}
	if len(view.errs) != 0 {
		t.Fatalf("empty page is not an error: %v", view.errs)
	}
	if !view.lastInfo().NextDisabled {
		t.Fatal("next should be disabled past the end")
	}
}

func TestPrevPageNeverNegative(t *testing.T) {
	b := New(&fakeFetcher{total: 120}, &recordingView{})
	ctx := context.Background()

	b.PrevPage(ctx)
	if b.Offset() != 0 {
		t.Fatalf("expected 0, got %d", b.Offset())
	}

	b.NextPage(ctx)
	b.NextPage(ctx)
	b.PrevPage(ctx)
	if b.Offset() != 50 {
		t.Fatalf("expected 50, got %d", b.Offset())
	}
	b.PrevPage(ctx)
	b.PrevPage(ctx)
	if b.Offset() != 0 {
		t.Fatalf("expected 0, got %d", b.Offset())
	}
}

func TestSetFiltersResetsState(t *testing.T) {
	fetcher := &fakeFetcher{total: 120, withIO: true}
	b := New(fetcher, &recordingView{})
	ctx := context.Background()

	b.NextPage(ctx)
	b.ToggleExpand("some-id")

	b.SetFilters(ctx, models.FilterSet{Model: "gpt-4o", Status: "error"})

	snap := b.Snapshot()
	if snap.Offset != 0 {
		t.Fatalf("offset should reset, got %d", snap.Offset)
	}
	if len(snap.Expanded) != 0 {
		t.Fatalf("expanded should clear, got %v", snap.Expanded)
	}
	q := fetcher.lastQuery()
	if q.Filters.Model != "gpt-4o" || q.Offset != 0 {
		t.Fatalf("unexpected query %+v", q)
	}

	b.ToggleExpand("x")
	b.ClearFilters(ctx)
	if !b.Filters().IsZero() || len(b.Snapshot().Expanded) != 0 {
		t.Fatalf("clear should drop filters and expanded rows: %+v", b.Snapshot())
	}
}

func TestNavigationClearsExpanded(t *testing.T) {
	b := New(&fakeFetcher{total: 120}, &recordingView{})
	ctx := context.Background()

	b.ToggleExpand("a")
	b.NextPage(ctx)
	if b.IsExpanded("a") {
		t.Fatal("next should clear expanded rows")
	}
	b.ToggleExpand("b")
	b.PrevPage(ctx)
	if b.IsExpanded("b") {
		t.Fatal("prev should clear expanded rows")
	}
}

func TestQueryNeverCarriesEmptyValues(t *testing.T) {
	filterSets := []models.FilterSet{
		{},
		{Model: "gpt-4o"},
		{Status: "error", EndDate: "2026-01-31"},
		{Model: "m", Status: "success", StartDate: "2026-01-01", EndDate: "2026-01-31"},
		{StartDate: "2026-01-01"},
	}
	for _, f := range filterSets {
		fetcher := &fakeFetcher{}
		b := New(fetcher, &recordingView{})
		b.SetFilters(context.Background(), f)

		values := fetcher.lastQuery().Values()
		for key, vals := range values {
			for _, v := range vals {
				if v == "" {
					t.Errorf("filters %+v produced empty parameter %q", f, key)
				}
			}
		}
		if values.Get("limit") != "50" || values.Get("offset") != "0" {
			t.Errorf("unexpected paging params %v", values)
		}
		assertParam(t, values, "model", f.Model)
		assertParam(t, values, "status", f.Status)
		assertParam(t, values, "start_date", f.StartDate)
		assertParam(t, values, "end_date", f.EndDate)
	}
}

func assertParam(t *testing.T, values url.Values, key, want string) {
	t.Helper()
	_, present := values[key]
	if want == "" && present {
		t.Errorf("%s should be omitted", key)
	}
	if want != "" && values.Get(key) != want {
		t.Errorf("%s: expected %q, got %q", key, want, values.Get(key))
	}
}

func TestToggleExpandIsInvolution(t *testing.T) {
	fetcher := &fakeFetcher{total: 3, withIO: true}
	view := &recordingView{}
	b := New(fetcher, view)
	ctx := context.Background()
	b.LoadPage(ctx)
	b.NextPage(ctx)
	b.PrevPage(ctx)

	before := b.Snapshot()
	fetches := len(fetcher.queries)

	b.ToggleExpand("req-0")
	if !b.IsExpanded("req-0") {
		t.Fatal("first toggle should expand")
	}
	if !view.lastTable().Rows[0].Expanded {
		t.Fatal("toggle should re-render with the row expanded")
	}
	b.ToggleExpand("req-0")

	after := b.Snapshot()
	if len(after.Expanded) != 0 {
		t.Fatalf("double toggle should leave nothing expanded, got %v", after.Expanded)
	}
	if after.Offset != before.Offset || after.Total != before.Total || after.Filters != before.Filters {
		t.Fatalf("toggle must not touch offset, total or filters: %+v vs %+v", before, after)
	}
	if len(fetcher.queries) != fetches {
		t.Fatal("toggle must not fetch")
	}
}

func TestToggleExpandWithoutDetailIsHarmless(t *testing.T) {
	fetcher := &fakeFetcher{total: 1}
	view := &recordingView{}
	b := New(fetcher, view)
	b.LoadPage(context.Background())

	row := view.lastTable().Rows[0]
	if row.HasDetail {
		t.Fatal("entry without input/output should have no detail control")
	}

	b.ToggleExpand(row.ID)
	if !b.IsExpanded(row.ID) {
		t.Fatal("programmatic toggle should still flip the state")
	}
	b.ToggleExpand(row.ID)
	if b.IsExpanded(row.ID) {
		t.Fatal("second toggle should restore the state")
	}
}

func TestToggleBeforeFirstLoadDoesNotRender(t *testing.T) {
	view := &recordingView{}
	b := New(&fakeFetcher{}, view)
	b.ToggleExpand("a")
	if len(view.tables) != 0 {
		t.Fatal("nothing to render before a page was loaded")
	}
}

func TestLoadPageFailureKeepsState(t *testing.T) {
	fetcher := &fakeFetcher{total: 120}
	view := &recordingView{}
	b := New(fetcher, view)
	ctx := context.Background()

	b.NextPage(ctx)
	b.ToggleExpand("req-x")
	before := b.Snapshot()

	fetcher.mu.Lock()
	fetcher.err = errors.New("connection refused")
	fetcher.mu.Unlock()

	b.LoadPage(ctx)

	if len(view.errs) != 1 {
		t.Fatalf("expected one error render, got %d", len(view.errs))
	}
	after := b.Snapshot()
	if after.Offset != before.Offset || after.Total != before.Total || len(after.Expanded) != 1 {
		t.Fatalf("failure must not alter state: %+v vs %+v", before, after)
	}
}

func TestToggleAfterFailedLoadKeepsPlaceholder(t *testing.T) {
	fetcher := &fakeFetcher{total: 120, withIO: true}
	view := &recordingView{}
	b := New(fetcher, view)
	ctx := context.Background()

	b.LoadPage(ctx)

	fetcher.mu.Lock()
	fetcher.err = errors.New("connection refused")
	fetcher.mu.Unlock()

	b.NextPage(ctx)
	if b.Offset() != 50 || len(view.errs) != 1 {
		t.Fatalf("expected failed load at offset 50, got offset=%d errs=%d", b.Offset(), len(view.errs))
	}

	b.ToggleExpand("req-0")

	if len(view.tables) != 1 {
		t.Fatalf("stale page must not be rendered again, got %d page renders", len(view.tables))
	}
	if !b.IsExpanded("req-0") {
		t.Error("toggle should still update the expanded set")
	}
	if got := b.Entries(); len(got) != 0 {
		t.Errorf("no entries expected after a failed load, got %d", len(got))
	}

	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.mu.Unlock()

	b.LoadPage(ctx)
	if info := view.lastInfo(); info.String() != "Showing 51-100 of 120 entries" || info.PrevDisabled {
		t.Errorf("unexpected info after recovery %+v", info)
	}
}

func TestLoadPageUsesServerOffset(t *testing.T) {
	view := &recordingView{}
	fetcher := fetcherFunc(func(ctx context.Context, q models.LogQuery) (*models.LogsPage, error) {
		return &models.LogsPage{Entries: make([]models.LogEntry, 20), Total: 120, Offset: 100, Count: 20}, nil
	})
	b := New(fetcher, view)
	b.LoadPage(context.Background())

	info := view.lastInfo()
	if info.Start != 101 || info.End != 120 || !info.NextDisabled || info.PrevDisabled {
		t.Fatalf("controls should follow the server offset: %+v", info)
	}
}

type fetcherFunc func(ctx context.Context, q models.LogQuery) (*models.LogsPage, error)

func (f fetcherFunc) FetchLogs(ctx context.Context, q models.LogQuery) (*models.LogsPage, error) {
	return f(ctx, q)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetcher := fetcherFunc(func(ctx context.Context, q models.LogQuery) (*models.LogsPage, error) {
		if q.Offset == 0 {
			close(started)
			<-release
			return &models.LogsPage{Entries: []models.LogEntry{{ID: "stale"}}, Total: 120, Offset: 0, Count: 1}, nil
		}
		return &models.LogsPage{Entries: []models.LogEntry{{ID: "fresh"}}, Total: 120, Offset: q.Offset, Count: 1}, nil
	})
	view := &recordingView{}
	b := New(fetcher, view)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		b.LoadPage(ctx)
		close(done)
	}()
	<-started

	b.NextPage(ctx)
	close(release)
	<-done

	if id := view.lastTable().Rows[0].ID; id != "fresh" {
		t.Fatalf("late response for an older request must not overwrite the page, got %q", id)
	}
	if len(view.tables) != 1 {
		t.Fatalf("expected a single render, got %d", len(view.tables))
	}
}

func TestWithOptions(t *testing.T) {
	fetcher := &fakeFetcher{}
	b := New(fetcher, &recordingView{},
		WithLimit(10),
		WithFilters(models.FilterSet{Status: "error"}),
		WithLocation(time.UTC),
	)
	b.LoadPage(context.Background())

	q := fetcher.lastQuery()
	if q.Limit != 10 || q.Filters.Status != "error" {
		t.Fatalf("options not applied: %+v", q)
	}
}
