// Package wire provides bounds-checked access to captured frame bytes and the
// error kinds shared by every decoder built on top of it.
//
// Error Handling:
//
// Decoders wrap one of the sentinels below with fmt.Errorf("...: %w", err) so
// that callers can classify failures with errors.Is while keeping context
// about which structure was being read.
package wire

import "errors"

var (
	// ErrTruncatedData means the buffer is shorter than the structure requires.
	ErrTruncatedData = errors.New("truncated data")

	// ErrMalformedHeader means an IPv4 header field is out of its valid range.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrMalformedRecord means a DNS label or RDATA length is invalid for its type.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrCompressionLoop means a DNS name pointer chain revisited an offset.
	ErrCompressionLoop = errors.New("compression loop")

	// ErrNameTooLong means a decoded DNS name exceeds 255 octets on the wire.
	ErrNameTooLong = errors.New("name too long")
)

// Kind returns a short stable label for err, suitable for metric labels and
// structured log fields. Unknown errors map to "other"; nil maps to "".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTruncatedData):
		return "truncated_data"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrCompressionLoop):
		return "compression_loop"
	case errors.Is(err, ErrNameTooLong):
		return "name_too_long"
	default:
		return "other"
	}
}
