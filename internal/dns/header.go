package dns

import (
	"encoding/binary"
	"fmt"

	"github.com/jroosing/dnstrace/internal/wire"
)

// Header represents a DNS message header (RFC 1035 Section 4.1.1).
//
// The header is always 12 bytes and contains:
//   - ID: 16-bit identifier for matching requests to responses
//   - Flags: 16-bit field containing QR, Opcode, AA, TC, RD, RA, Z, RCODE
//   - QDCount: Number of questions
//   - ANCount: Number of answer resource records
//   - NSCount: Number of authority resource records
//   - ARCount: Number of additional resource records
//
// All fields are held in host order; the wire form is big-endian.
type Header struct {
	ID      uint16 // Transaction ID
	Flags   uint16 // See enums.go for flag definitions
	QDCount uint16 // Question count
	ANCount uint16 // Answer count
	NSCount uint16 // Authority (nameserver) count
	ARCount uint16 // Additional records count
}

// HeaderSize is the fixed size of a DNS header in bytes.
const HeaderSize = 12

// Marshal serializes the header to wire format (big-endian, 12 bytes).
func (h Header) Marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.ID)
	binary.BigEndian.PutUint16(b[2:4], h.Flags)
	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)
	return b
}

// ParseHeader reads a DNS header at the cursor position and advances past it.
func ParseHeader(c *wire.Cursor) (Header, error) {
	if c.Remaining(c.Pos()) < HeaderSize {
		return Header{}, fmt.Errorf("%w: dns header needs %d bytes, have %d",
			wire.ErrTruncatedData, HeaderSize, c.Remaining(c.Pos()))
	}
	var h Header
	h.ID, _ = c.U16()
	h.Flags, _ = c.U16()
	h.QDCount, _ = c.U16()
	h.ANCount, _ = c.U16()
	h.NSCount, _ = c.U16()
	h.ARCount, _ = c.U16()
	return h, nil
}

// RecordCount returns the total number of resource records announced.
func (h Header) RecordCount() int {
	return int(h.ANCount) + int(h.NSCount) + int(h.ARCount)
}

// IsQuery returns true if this is a query (QR=0), false if it's a response (QR=1).
func (h Header) IsQuery() bool {
	return h.Flags&QRFlag == 0
}

// IsResponse returns true if this is a response (QR=1), false if it's a query (QR=0).
func (h Header) IsResponse() bool {
	return h.Flags&QRFlag != 0
}

// Opcode extracts the 4-bit opcode (bits 14-11).
func (h Header) Opcode() uint8 {
	return uint8((h.Flags & OpcodeMask) >> 11)
}

// RCode returns the response code.
func (h Header) RCode() RCode {
	return RCodeFromFlags(h.Flags)
}

// Authoritative returns true if the AA (Authoritative Answer) flag is set.
func (h Header) Authoritative() bool {
	return h.Flags&AAFlag != 0
}

// Truncated returns true if the TC (Truncated) flag is set.
func (h Header) Truncated() bool {
	return h.Flags&TCFlag != 0
}

// RecursionDesired returns true if the RD (Recursion Desired) flag is set.
func (h Header) RecursionDesired() bool {
	return h.Flags&RDFlag != 0
}

// RecursionAvailable returns true if the RA (Recursion Available) flag is set.
func (h Header) RecursionAvailable() bool {
	return h.Flags&RAFlag != 0
}
