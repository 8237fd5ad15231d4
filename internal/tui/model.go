// Package tui is a live terminal table of recently observed DNS messages.
package tui

import (
	"io"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jroosing/dnstrace/internal/present"
	"github.com/jroosing/dnstrace/internal/trace"
)

const (
	defaultRefresh = 250 * time.Millisecond
	defaultRows    = 200
	minTableHeight = 5
	// Lines used by the title, counters box and help line.
	chromeHeight = 8
)

// TickMsg triggers a refresh from the ring buffer.
type TickMsg time.Time

// Options configures the model.
type Options struct {
	Ring    *trace.Ring
	Stats   *trace.Stats
	Source  string
	Refresh time.Duration
	// Rows caps how many recent events the table holds.
	Rows int
}

type Model struct {
	ring    *trace.Ring
	stats   *trace.Stats
	source  string
	refresh time.Duration
	maxRows int

	table    table.Model
	shown    []trace.Summary
	counters trace.StatsSnapshot
	paused   bool
	detail   bool
	width    int
	height   int
	render   *present.Console
}

func New(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		ring:    opts.Ring,
		stats:   opts.Stats,
		source:  opts.Source,
		refresh: opts.Refresh,
		maxRows: opts.Rows,
		table:   t,
		render:  present.NewConsole(io.Discard, present.FormatText, nil),
	}
}

var columns = []table.Column{
	{Title: "Time", Width: 12},
	{Title: "Server", Width: 22},
	{Title: "ID", Width: 6},
	{Title: "RCode", Width: 9},
	{Title: "Question", Width: 34},
	{Title: "Type", Width: 6},
	{Title: "Ans", Width: 4},
	{Title: "Note", Width: 16},
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
