// Package present writes decoded DNS events to a terminal or log stream.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jroosing/dnstrace/internal/trace"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	labelWidth = 16
	ruleWidth  = 80
)

// Console is a trace.Sink that prints each event as a text block or as one
// JSON object per line.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	logger *slog.Logger

	rule    lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	warn    lipgloss.Style
	fresh   lipgloss.Style
}

// NewConsole creates a console sink. Colors are only emitted when w is a
// terminal that supports them.
func NewConsole(w io.Writer, format string, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		format:  format,
		logger:  logger,
		rule:    r.NewStyle().Foreground(lipgloss.Color("240")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")),
		fresh:   r.NewStyle().Foreground(lipgloss.Color("#04B575")),
	}
}

// Publish renders ev. Write failures are logged and otherwise ignored so a
// closed pipe never stalls capture.
func (c *Console) Publish(ev trace.Event) {
	s := trace.Summarize(ev)

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.format == FormatJSON {
		err = json.NewEncoder(c.w).Encode(s)
	} else {
		_, err = io.WriteString(c.w, c.Render(s))
	}
	if err != nil {
		c.logger.Warn("writing event failed", "id", s.ID, "err", err)
	}
}

// Render returns the text block for s, as Publish prints it in text format.
func (c *Console) Render(s trace.Summary) string {
	var b strings.Builder

	b.WriteString(c.rule.Render(strings.Repeat("-", ruleWidth)))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%s  %s -> %s  (%d bytes)",
		s.ObservedAt.Format("2006-01-02T15:04:05.000Z07:00"), s.Source, s.Destination, s.PayloadSize)
	if s.FirstSeen {
		b.WriteString(" " + c.fresh.Render("[new]"))
	}
	b.WriteByte('\n')

	c.heading(&b, "DNS HEADER")
	c.field(&b, "id: ", fmt.Sprint(s.TransactionID))
	c.field(&b, "flags: ", s.Flags)
	c.field(&b, "opcode: ", fmt.Sprint(s.Opcode))
	c.field(&b, "rcode: ", s.RCode)
	c.field(&b, "# questions: ", fmt.Sprint(s.QDCount))
	c.field(&b, "# answers: ", fmt.Sprint(s.ANCount))
	c.field(&b, "# ns: ", fmt.Sprint(s.NSCount))
	c.field(&b, "# ar: ", fmt.Sprint(s.ARCount))

	if len(s.Questions) > 0 {
		c.heading(&b, "QUESTIONS")
		for _, q := range s.Questions {
			c.field(&b, "TYPE: ", q.Type)
			c.field(&b, "CLASS: ", fmt.Sprint(q.Class))
			c.field(&b, "URL: ", q.Name)
		}
	}
	c.records(&b, "ANSWERS", s.Answers)
	c.records(&b, "AUTHORITY", s.Authorities)
	c.records(&b, "ADDITIONAL", s.Additionals)

	if s.Error != "" {
		b.WriteString(c.warn.Render("DECODE ERROR"))
		b.WriteByte('\n')
		c.field(&b, "kind: ", s.ErrorKind)
		c.field(&b, "detail: ", s.Error)
	}
	return b.String()
}

func (c *Console) records(b *strings.Builder, title string, rrs []trace.RecordSummary) {
	if len(rrs) == 0 {
		return
	}
	c.heading(b, title)
	for _, rr := range rrs {
		c.field(b, rr.Type+": ", fmt.Sprintf("%s  (%s ttl %d)", rr.Data, rr.Name, rr.TTL))
	}
}

func (c *Console) heading(b *strings.Builder, title string) {
	b.WriteString(c.section.Render(title))
	b.WriteByte('\n')
}

func (c *Console) field(b *strings.Builder, label, value string) {
	b.WriteString(c.label.Render(fmt.Sprintf("%*s", labelWidth, label)))
	b.WriteString(value)
	b.WriteByte('\n')
}
