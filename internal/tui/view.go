package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	header := "dnstrace"
	if m.source != "" {
		header += " - " + m.source
	}
	title := titleStyle.Render(header)
	if m.paused {
		title = lipgloss.JoinHorizontal(lipgloss.Center, title, " ", pausedStyle.Render("PAUSED"))
	}

	c := m.counters
	counters := infoStyle.Render(fmt.Sprintf(
		"frames %d  dns %d  published %d  filtered %d  dissect errors %d  decode errors %d",
		c.Frames, c.Matched, c.Published, c.Filtered, c.DissectErrors, c.DecodeErrors))

	body := lipgloss.JoinVertical(lipgloss.Left, title, counters, m.table.View())
	if m.detail {
		if s, ok := m.selected(); ok {
			body = lipgloss.JoinVertical(lipgloss.Left, body, infoStyle.Render(m.render.Render(s)))
		}
	}

	return body + "\n" + helpStyle.Render("up/down select  enter details  p pause  q quit")
}
