package render

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/clotilde/admin-console/internal/models"
	"github.com/clotilde/admin-console/internal/pagination"
)

//go:embed templates/*.html
var templateFS embed.FS

// html/template escapes every value by context, so user text can only
// ever land in the markup as text.
var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"formatInt": formatInt,
}).ParseFS(templateFS, "templates/*.html"))

// LogsPanel is the state of the log table area
type LogsPanel struct {
	Loaded bool            `json:"loaded"`
	Failed bool            `json:"failed"`
	Table  Table           `json:"table"`
	Info   pagination.Info `json:"info"`
}

// Flash is a one-shot notice shown at the top of the page
type Flash struct {
	Kind    string
	Message string
}

// CategoryPrompt is one editable per-category prompt
type CategoryPrompt struct {
	Key    string
	Label  string
	Prompt string
}

// Page is everything the dashboard page shows
type Page struct {
	Stats          *models.Stats
	Filters        models.FilterSet
	Logs           LogsPanel
	Config         *models.RuntimeConfig
	AutoRefresh    bool
	RefreshSeconds int
	CSRFToken      string
	Flash          *Flash
}

// CategoryPrompts lists the editable prompts in display order.
func (p Page) CategoryPrompts() []CategoryPrompt {
	out := make([]CategoryPrompt, 0, len(models.Categories))
	for _, key := range models.Categories {
		cp := CategoryPrompt{Key: key, Label: FormatCategory(key)}
		if p.Config != nil {
			cp.Prompt = p.Config.CategoryPrompts[key]
		}
		out = append(out, cp)
	}
	return out
}

// SearchEnabled reports the web search toggle, enabled when no config
// has been loaded.
func (p Page) SearchEnabled() bool {
	if p.Config == nil {
		return true
	}
	return p.Config.SearchEnabled()
}

// WritePage renders the full dashboard.
func WritePage(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "page", p)
}

// WriteLogs renders only the log table and its pagination controls.
func WriteLogs(w io.Writer, panel LogsPanel, csrfToken string) error {
	return templates.ExecuteTemplate(w, "logs", Page{Logs: panel, CSRFToken: csrfToken})
}

// formatInt groups thousands with commas.
func formatInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
