package dns

import (
	"fmt"

	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/jroosing/dnstrace/internal/wire"
)

// maxPrealloc caps slice capacity hints taken from header counts, which
// come straight off the wire and may claim up to 65535 entries.
const maxPrealloc = 32

// Message is a decoded DNS message.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

// Decode parses a DNS message from a UDP payload.
//
// On failure the returned Message still holds the header and every question
// and record decoded before the failing entry, and the error is a
// *DecodeError naming where decoding stopped.
func Decode(payload []byte) (Message, error) {
	var msg Message
	c := wire.NewCursor(payload)

	h, err := ParseHeader(c)
	if err != nil {
		return msg, &DecodeError{Section: SectionHeader, Offset: 0, Err: err}
	}
	msg.Header = h

	msg.Questions = make([]Question, 0, min(int(h.QDCount), maxPrealloc))
	for i := 0; i < int(h.QDCount); i++ {
		off := c.Pos()
		q, err := ParseQuestion(c)
		if err != nil {
			return msg, &DecodeError{Section: SectionQuestion, Index: i, Offset: off, Err: err}
		}
		msg.Questions = append(msg.Questions, q)
	}

	sections := []struct {
		section Section
		count   uint16
		dst     *[]ResourceRecord
	}{
		{SectionAnswer, h.ANCount, &msg.Answers},
		{SectionAuthority, h.NSCount, &msg.Authorities},
		{SectionAdditional, h.ARCount, &msg.Additionals},
	}
	for _, s := range sections {
		*s.dst = make([]ResourceRecord, 0, min(int(s.count), maxPrealloc))
		for i := 0; i < int(s.count); i++ {
			off := c.Pos()
			rr, err := ParseRecord(c)
			if err != nil {
				return msg, &DecodeError{Section: s.section, Index: i, Offset: off, Err: err}
			}
			*s.dst = append(*s.dst, rr)
		}
	}

	return msg, nil
}

// Marshal serializes the message without name compression. Section counts
// in the encoded header follow the slice lengths, not msg.Header.
func (m Message) Marshal() ([]byte, error) {
	h := m.Header
	h.QDCount = helpers.ClampIntToUint16(len(m.Questions))
	h.ANCount = helpers.ClampIntToUint16(len(m.Answers))
	h.NSCount = helpers.ClampIntToUint16(len(m.Authorities))
	h.ARCount = helpers.ClampIntToUint16(len(m.Additionals))

	out := make([]byte, 0, 512)
	out = append(out, h.Marshal()...)

	for i, q := range m.Questions {
		b, err := q.Marshal()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, b...)
	}
	for _, rr := range m.Records() {
		b, err := rr.Marshal()
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", rr.Name, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Records returns answers, authorities and additionals in wire order.
func (m Message) Records() []ResourceRecord {
	out := make([]ResourceRecord, 0, len(m.Answers)+len(m.Authorities)+len(m.Additionals))
	out = append(out, m.Answers...)
	out = append(out, m.Authorities...)
	out = append(out, m.Additionals...)
	return out
}

// Names returns every owner name, question name and CNAME target in the
// message, in order of appearance and without duplicates.
func (m Message) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(n string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, q := range m.Questions {
		add(q.Name)
	}
	for _, rr := range m.Records() {
		add(rr.Name)
		if cn, ok := rr.Data.(*CNAMEData); ok {
			add(cn.Target)
		}
	}
	return out
}
