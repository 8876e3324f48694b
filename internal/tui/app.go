// Package tui is the terminal front end of the console.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clotilde/admin-console/internal/dashboard"
	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/render"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("24")).Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

const helpText = "n/p page • ↑/↓ select • enter expand • s status • c clear • r reload • a auto-refresh • q quit"

// statusCycle is the order the status filter steps through
var statusCycle = []string{"", models.StatusSuccess, models.StatusError}

// panelMsg signals a new log table render
type panelMsg struct{}

type statusMsg string

// App is the bubbletea model
type App struct {
	ctx context.Context
	svc *dashboard.Service

	panel  render.LogsPanel
	cursor int
	width  int
	status string
}

// New creates the terminal app
func New(ctx context.Context, svc *dashboard.Service) *App {
	return &App{ctx: ctx, svc: svc, status: "Loading…"}
}

// Attach notifies p of every log table render. The listener runs with
// the browser locked, so the send must not wait for the event loop.
func (a *App) Attach(p *tea.Program) {
	a.svc.View().SetListener(func(render.LogsPanel) {
		go p.Send(panelMsg{})
	})
}

// Init performs the initial loads
func (a *App) Init() tea.Cmd {
	return a.run("Ready", func() { a.svc.Start(a.ctx) })
}

// Update handles events and state mutations
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case panelMsg:
		a.panel = a.svc.View().Panel()
		a.clampCursor()
		return a, nil

	case statusMsg:
		a.status = string(msg)
		a.panel = a.svc.View().Panel()
		a.clampCursor()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyPress(msg)
	}
	return a, nil
}

func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := a.svc.Browser()

	switch msg.String() {
	case "q", "ctrl+c":
		a.svc.Stop()
		return a, tea.Quit
	case "n":
		a.cursor = 0
		return a, a.run("Next page", func() { b.NextPage(a.ctx) })
	case "p":
		a.cursor = 0
		return a, a.run("Previous page", func() { b.PrevPage(a.ctx) })
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		a.cursor++
		a.clampCursor()
	case "enter", " ":
		row, ok := a.selected()
		if !ok || !row.HasDetail {
			return a, nil
		}
		return a, a.run("", func() { b.ToggleExpand(row.ID) })
	case "s":
		f := b.Filters()
		f.Status = nextStatus(f.Status)
		a.cursor = 0
		return a, a.run(statusLabel(f.Status), func() { b.SetFilters(a.ctx, f) })
	case "c":
		a.cursor = 0
		return a, a.run("Filters cleared", func() { b.ClearFilters(a.ctx) })
	case "r":
		return a, a.run("Reloaded", func() {
			b.LoadPage(a.ctx)
			a.svc.LoadStats(a.ctx)
		})
	case "a":
		on := !a.svc.AutoRefresh()
		label := "Auto-refresh off"
		if on {
			label = "Auto-refresh on"
		}
		return a, a.run(label, func() { a.svc.SetAutoRefresh(on) })
	}
	return a, nil
}

// View renders the screen
func (a *App) View() string {
	var sb strings.Builder

	title := "Clotilde Admin"
	if a.svc.AutoRefresh() {
		title += " ⟳"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(statsStyle.Render(statsLine(a.svc.Stats())))
	sb.WriteString("\n")
	sb.WriteString(filterStyle.Render(filterLine(a.svc.Browser().Filters())))
	sb.WriteString("\n\n")
	sb.WriteString(render.Text(a.panel, a.cursor))
	sb.WriteString("\n\n")
	if a.status != "" {
		sb.WriteString(a.status)
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render(helpText))
	return sb.String()
}

// run executes fn off the event loop and reports label when done. An
// empty label keeps the current status line.
func (a *App) run(label string, fn func()) tea.Cmd {
	if label == "" {
		label = a.status
	}
	return func() tea.Msg {
		fn()
		return statusMsg(label)
	}
}

func (a *App) selected() (render.Row, bool) {
	rows := a.panel.Table.Rows
	if a.panel.Failed || a.cursor < 0 || a.cursor >= len(rows) {
		return render.Row{}, false
	}
	return rows[a.cursor], true
}

func (a *App) clampCursor() {
	if n := len(a.panel.Table.Rows); a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func nextStatus(current string) string {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

func statusLabel(status string) string {
	if status == "" {
		return "Status: all"
	}
	return "Status: " + status
}

func statsLine(s *models.Stats) string {
	if s == nil {
		return "Stats unavailable"
	}
	return fmt.Sprintf("Today %d • Total %d • Avg %.0fms • Errors %.2f%% • Standard %d • Premium %d • Up %s",
		s.TotalRequestsToday, s.TotalRequests, s.AvgResponseTimeMs, s.ErrorRate,
		s.ModelUsage.CompactCount(), s.ModelUsage.FullCount(), s.Uptime)
}

func filterLine(f models.FilterSet) string {
	if f.IsZero() {
		return "No filters"
	}
	var parts []string
	if f.Model != "" {
		parts = append(parts, "model="+f.Model)
	}
	if f.Status != "" {
		parts = append(parts, "status="+f.Status)
	}
	if f.StartDate != "" {
		parts = append(parts, "from="+f.StartDate)
	}
	if f.EndDate != "" {
		parts = append(parts, "to="+f.EndDate)
	}
	return "Filters: " + strings.Join(parts, " ")
}
