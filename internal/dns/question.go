package dns

import (
	"encoding/binary"
	"fmt"

	"github.com/jroosing/dnstrace/internal/wire"
)

// Question represents a DNS question section entry (RFC 1035 Section 4.1.2).
//
// Each question specifies what the client is asking for:
//   - Name: The domain name being queried
//   - Type: The record type requested (A, AAAA, MX, etc.)
//   - Class: Usually ClassIN (Internet)
type Question struct {
	Name  string
	Type  RecordType
	Class uint16
}

// Marshal serializes the question to DNS wire format.
func (q Question) Marshal() ([]byte, error) {
	name, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	b := make([]byte, len(name), len(name)+4)
	copy(b, name)
	b = binary.BigEndian.AppendUint16(b, uint16(q.Type))
	b = binary.BigEndian.AppendUint16(b, q.Class)
	return b, nil
}

// ParseQuestion reads a question at the cursor position and advances past it.
func ParseQuestion(c *wire.Cursor) (Question, error) {
	name, err := readName(c)
	if err != nil {
		return Question{}, err
	}
	if c.Remaining(c.Pos()) < 4 {
		return Question{}, fmt.Errorf("%w: question type/class for %q", wire.ErrTruncatedData, name)
	}
	qtype, _ := c.U16()
	qclass, _ := c.U16()
	return Question{Name: name, Type: RecordType(qtype), Class: qclass}, nil
}
