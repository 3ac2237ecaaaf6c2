package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"modpack-editor/roster"
)

var (
	Header   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	Footer   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Failure  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Selected = lipgloss.NewStyle().Background(lipgloss.Color("8")).Bold(true)

	rowStyle     = lipgloss.NewStyle().Padding(0, 1)
	erroredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Strikethrough(true)
)

// Side renders a client/server flag as a short badge.
func Side(label string, on bool) string {
	if on {
		return Success.Render("[" + label + "]")
	}
	return Muted.Render("[" + label + "]")
}

// Row renders one roster row. width is the column reserved for the name.
func Row(row roster.Row, selected bool, width int) string {
	var line string
	switch {
	case row.Errored:
		msg := row.ErrorMessage
		if msg == "" {
			msg = "not resolved"
		}
		line = erroredStyle.Render(fmt.Sprintf("! %-*s %s", width, Truncate("project "+string(row.Key), width), msg))
	default:
		name := fmt.Sprintf("  %-*s", width, Truncate(row.Name, width))
		if row.PendingDelete {
			name = pendingStyle.Render(name) + Failure.Render("  delete? y/n")
		}
		line = fmt.Sprintf("%s %s %s", name, Side("client", row.OnClient), Side("server", row.OnServer))
	}
	if row.Errored && row.PendingDelete {
		line += Failure.Render("  delete? y/n")
	}

	style := rowStyle
	if selected {
		style = style.Inherit(Selected)
	}
	return style.Render(line)
}

// Truncate shortens s to maxLen runes, marking the cut with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
