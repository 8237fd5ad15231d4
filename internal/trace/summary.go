package trace

import (
	"time"

	"github.com/jroosing/dnstrace/internal/dns"
	"github.com/jroosing/dnstrace/internal/wire"
)

// RootName is how the root domain is displayed.
const RootName = "<root>"

// Summary is the display form of an Event, shared by the console, the TUI,
// the journal and the HTTP API.
type Summary struct {
	ID            string            `json:"id"`
	ObservedAt    time.Time         `json:"observed_at"`
	Source        string            `json:"source"`
	Destination   string            `json:"destination"`
	PayloadSize   int               `json:"payload_size"`
	TransactionID uint16            `json:"transaction_id"`
	Response      bool              `json:"response"`
	Opcode        uint8             `json:"opcode"`
	RCode         string            `json:"rcode"`
	Flags         string            `json:"flags"`
	QDCount       uint16            `json:"qdcount"`
	ANCount       uint16            `json:"ancount"`
	NSCount       uint16            `json:"nscount"`
	ARCount       uint16            `json:"arcount"`
	Questions     []QuestionSummary `json:"questions"`
	Answers       []RecordSummary   `json:"answers"`
	Authorities   []RecordSummary   `json:"authorities"`
	Additionals   []RecordSummary   `json:"additionals"`
	FirstSeen     bool              `json:"first_seen"`
	Error         string            `json:"error,omitempty"`
	ErrorKind     string            `json:"error_kind,omitempty"`
}

// QuestionSummary is the display form of a question.
type QuestionSummary struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Class uint16 `json:"class"`
}

// RecordSummary is the display form of a resource record.
type RecordSummary struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Class uint16 `json:"class"`
	TTL   uint32 `json:"ttl"`
	Data  string `json:"data"`
}

// Summarize converts an event to its display form.
func Summarize(ev Event) Summary {
	h := ev.Message.Header
	s := Summary{
		ID:            ev.ID.String(),
		ObservedAt:    ev.ObservedAt,
		Source:        ev.Source.String(),
		Destination:   ev.Destination.String(),
		PayloadSize:   ev.PayloadSize,
		TransactionID: h.ID,
		Response:      h.IsResponse(),
		Opcode:        h.Opcode(),
		RCode:         h.RCode().String(),
		Flags:         dns.FlagString(h.Flags),
		QDCount:       h.QDCount,
		ANCount:       h.ANCount,
		NSCount:       h.NSCount,
		ARCount:       h.ARCount,
		Questions:     make([]QuestionSummary, 0, len(ev.Message.Questions)),
		Answers:       summarizeRecords(ev.Message.Answers),
		Authorities:   summarizeRecords(ev.Message.Authorities),
		Additionals:   summarizeRecords(ev.Message.Additionals),
		FirstSeen:     ev.FirstSeen,
	}
	for _, q := range ev.Message.Questions {
		s.Questions = append(s.Questions, QuestionSummary{
			Name:  DisplayName(q.Name),
			Type:  q.Type.String(),
			Class: q.Class,
		})
	}
	if ev.Err != nil {
		s.Error = ev.Err.Error()
		s.ErrorKind = wire.Kind(ev.Err)
	}
	return s
}

func summarizeRecords(rrs []dns.ResourceRecord) []RecordSummary {
	out := make([]RecordSummary, 0, len(rrs))
	for _, rr := range rrs {
		data := ""
		if rr.Data != nil {
			data = rr.Data.String()
		}
		if cn, ok := rr.Data.(*dns.CNAMEData); ok {
			data = DisplayName(cn.Target)
		}
		out = append(out, RecordSummary{
			Name:  DisplayName(rr.Name),
			Type:  rr.Type.String(),
			Class: rr.Class,
			TTL:   rr.TTL,
			Data:  data,
		})
	}
	return out
}

// DisplayName renders the root name as RootName and leaves others as-is.
func DisplayName(name string) string {
	if name == "" {
		return RootName
	}
	return name
}

// Records returns answers, authorities and additionals in wire order.
func (s Summary) Records() []RecordSummary {
	out := make([]RecordSummary, 0, len(s.Answers)+len(s.Authorities)+len(s.Additionals))
	out = append(out, s.Answers...)
	out = append(out, s.Authorities...)
	out = append(out, s.Additionals...)
	return out
}

// QuestionName returns the first question name, or "" when there is none.
func (s Summary) QuestionName() string {
	if len(s.Questions) == 0 {
		return ""
	}
	return s.Questions[0].Name
}
