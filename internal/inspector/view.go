package inspector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cristianoliveira/deskbridge/internal/ipc"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	channelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// View renders the TUI.
func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("deskbridge inspector"))
	s.WriteString(dimStyle.Render(fmt.Sprintf("  window=%s theme=%s", m.window, orDash(m.theme))))
	s.WriteString("\n\n")

	s.WriteString(renderWindows(m.windows))
	s.WriteString("\n")

	s.WriteString(m.viewport.View())
	s.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		s.WriteString(m.filter.View())
		s.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d events (%s)", len(m.visible()), len(m.events), m.mode)))
		s.WriteString("\n")
	}
	if m.status != "" {
		style := dimStyle
		if m.failed {
			style = errorStyle
		}
		s.WriteString(style.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(m.footer())
	return s.String()
}

func (m *Model) footer() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

func renderWindows(list []ipc.WindowInfo) string {
	if len(list) == 0 {
		return dimStyle.Render("No windows open") + "\n"
	}
	var s strings.Builder
	for _, w := range list {
		line := fmt.Sprintf("%-20s %-24s %s", w.ID, w.Title, windowState(w))
		if w.IsFocused {
			line = focusStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

func windowState(w ipc.WindowInfo) string {
	var flags []string
	if !w.IsVisible {
		flags = append(flags, "hidden")
	}
	if w.IsFocused {
		flags = append(flags, "focused")
	}
	return strings.Join(flags, ",")
}

func renderEvents(events []eventLine, width int) string {
	if len(events) == 0 {
		return dimStyle.Render("Waiting for events")
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		line := fmt.Sprintf("%s %s %s", e.at.Format("15:04:05"), channelStyle.Render(e.channel), e.payload)
		if width > 0 {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
