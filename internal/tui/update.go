package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jroosing/dnstrace/internal/trace"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p", " ":
			m.paused = !m.paused
			return m, nil
		case "enter":
			m.detail = len(m.shown) > 0 && !m.detail
			return m, nil
		case "esc":
			m.detail = false
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-chromeHeight, minTableHeight))
		return m, nil

	case TickMsg:
		if m.stats != nil {
			m.counters = m.stats.Snapshot()
		}
		if !m.paused {
			m.refreshRows()
		}
		return m, m.tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) refreshRows() {
	if m.ring == nil {
		return
	}
	events := m.ring.Recent(m.maxRows)
	m.shown = make([]trace.Summary, 0, len(events))
	rows := make([]table.Row, 0, len(events))
	for _, ev := range events {
		s := trace.Summarize(ev)
		m.shown = append(m.shown, s)
		rows = append(rows, row(s))
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func row(s trace.Summary) table.Row {
	var qname, qtype string
	if len(s.Questions) > 0 {
		qname, qtype = s.Questions[0].Name, s.Questions[0].Type
	}
	note := ""
	switch {
	case s.ErrorKind != "":
		note = s.ErrorKind
	case s.FirstSeen:
		note = "new"
	}
	return table.Row{
		s.ObservedAt.Format("15:04:05.000"),
		s.Source,
		strconv.Itoa(int(s.TransactionID)),
		s.RCode,
		qname,
		qtype,
		strconv.Itoa(len(s.Answers)),
		note,
	}
}

// selected returns the summary under the cursor.
func (m Model) selected() (trace.Summary, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return trace.Summary{}, false
	}
	return m.shown[i], true
}
