// Package dns decodes DNS messages (RFC 1035) observed on the wire.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification (message format,
//     label encoding, compression pointers)
//   - RFC 3596: DNS Extensions to Support IPv6 (AAAA records)
//   - RFC 2782: SRV records (type code only, RDATA is kept raw)
//
// Decoding Model:
//
// All reads go through a wire.Cursor, so malformed or hostile input surfaces as
// one of the wire error kinds instead of a panic. Decode keeps whatever it
// managed to parse before a failure: a corrupt answer section does not hide the
// header and questions that preceded it.
//
// Error Handling:
//
// Structural errors wrap the wire sentinels (wire.ErrTruncatedData,
// wire.ErrMalformedRecord, wire.ErrCompressionLoop, wire.ErrNameTooLong) with
// fmt.Errorf("...: %w", err). Decode additionally wraps failures in a
// *DecodeError naming the section and entry that failed.
package dns

import "fmt"

// Section identifies a part of a DNS message.
type Section uint8

const (
	SectionHeader Section = iota
	SectionQuestion
	SectionAnswer
	SectionAuthority
	SectionAdditional
)

// String returns the lowercase section name.
func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionQuestion:
		return "question"
	case SectionAnswer:
		return "answer"
	case SectionAuthority:
		return "authority"
	case SectionAdditional:
		return "additional"
	default:
		return fmt.Sprintf("section(%d)", uint8(s))
	}
}

// DecodeError reports where in a message decoding stopped.
type DecodeError struct {
	Section Section
	Index   int // entry index within Section; 0 for the header
	Offset  int // byte offset of the entry within the message
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Section == SectionHeader {
		return fmt.Sprintf("decoding dns header: %v", e.Err)
	}
	return fmt.Sprintf("decoding dns %s #%d at offset %d: %v", e.Section, e.Index, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
