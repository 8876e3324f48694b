package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

const (
	colorAccent   = "33"
	colorSuccess  = "42"
	colorError    = "203"
	colorSubtle   = "244"
	colorCompact  = "117"
	colorFull     = "141"
	colorSelectBG = "25"
	colorSelectFG = "230"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color(colorSelectBG)).Foreground(lipgloss.Color(colorSelectFG))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle))
	compactStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorCompact))
	fullStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFull))
	detailStyle   = lipgloss.NewStyle().PaddingLeft(4).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color(colorSubtle))
)

// Text renders the log panel for a terminal. cursor marks the selected
// row; a negative cursor selects nothing.
func Text(panel LogsPanel, cursor int) string {
	switch {
	case panel.Failed:
		return errorStyle.Render("✗ Failed to load logs")
	case !panel.Loaded:
		return mutedStyle.Render("Loading…")
	case panel.Table.Empty:
		return mutedStyle.Render("No logs found")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-16s %-24s %-22s %-14s %8s  %s", "TIME", "REQUEST ID", "MODEL", "CATEGORY", "RESP", "STATUS")))
	b.WriteString("\n")

	for i, row := range panel.Table.Rows {
		line := summaryLine(row)
		if i == cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if row.IsError && row.ErrorMessage != "" {
			b.WriteString(errorStyle.Render("    " + clean(row.ErrorMessage, false)))
			b.WriteString("\n")
		}
		if row.Expanded && row.HasDetail {
			b.WriteString(detailStyle.Render(detailText(row)))
			b.WriteString("\n")
		}
	}

	b.WriteString(mutedStyle.Render(panel.Info.String()))
	return b.String()
}

func summaryLine(row Row) string {
	model := mutedStyle.Render(fmt.Sprintf("%-22s", "N/A"))
	if row.Model != "" {
		style := fullStyle
		if row.ModelVariant == VariantCompact {
			style = compactStyle
		}
		model = style.Render(fmt.Sprintf("%-22s", truncate(clean(row.Model, false), 22)))
	}

	category := "-"
	if row.Category != "" {
		category = clean(row.Category, false)
	}

	status := successStyle.Render(row.Status)
	if row.IsError {
		status = errorStyle.Render(clean(row.Status, false))
	}

	marker := mutedStyle.Render(NoDetail)
	if row.HasDetail {
		marker = "▶"
		if row.Expanded {
			marker = "▼"
		}
	}

	return fmt.Sprintf("%-16s %-24s %s %-14s %6dms  %s %s",
		row.Time,
		truncate(clean(row.ID, false), 24),
		model,
		truncate(category, 14),
		row.ResponseTimeMs,
		status,
		marker,
	)
}

func detailText(row Row) string {
	var parts []string
	if row.Input != "" {
		parts = append(parts, headerStyle.Render("Input")+"\n"+clean(row.Input, true))
	}
	if row.Output != "" {
		parts = append(parts, headerStyle.Render("Output")+"\n"+clean(row.Output, true))
	}
	return strings.Join(parts, "\n\n")
}

// clean strips terminal escape sequences and control characters so that
// logged text cannot drive the terminal. Newlines survive when
// multiline is set.
func clean(s string, multiline bool) string {
	s = ansiEscape.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' && multiline {
			return r
		}
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
