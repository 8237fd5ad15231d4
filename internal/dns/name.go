package dns

import (
	"errors"
	"fmt"

	"github.com/jroosing/dnstrace/internal/pool"
	"github.com/jroosing/dnstrace/internal/wire"
)

const (
	// MaxLabelLength is the largest plain label length (RFC 1035 Section 2.3.4).
	MaxLabelLength = 63
	// MaxNameLength is the largest wire length of a name, including length
	// bytes and the root label.
	MaxNameLength = 255

	pointerMask byte = 0xC0
)

// namePool recycles the scratch buffer DecodeName assembles names in.
var namePool = pool.New(func() *[]byte {
	b := make([]byte, 0, MaxNameLength)
	return &b
})

// DecodeName decodes a possibly-compressed DNS name starting at off in msg.
//
// DNS name compression (RFC 1035 Section 4.1.4) replaces a suffix of a name
// with a pointer to an earlier occurrence:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	| 1  1|                OFFSET                   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//
// OFFSET is absolute within msg, so msg must be the whole DNS message.
//
// The returned consumed count is measured in the un-followed stream starting
// at off: a pointer contributes its two bytes and ends the count, because the
// enclosing record continues right after it.
//
// The name is returned dot-joined without a trailing dot and with the case
// found on the wire; the root name is "". Label bytes are in RFC 1035
// presentation form: a dot or backslash inside a label is escaped with a
// backslash and any byte outside printable ASCII becomes \DDD (decimal).
func DecodeName(msg []byte, off int) (string, int, error) {
	c := wire.NewCursor(msg)

	bufp := namePool.Get()
	defer namePool.Put(bufp)
	buf := (*bufp)[:0]

	var visited map[int]struct{}
	pos := off
	consumed := -1
	wireLen := 0

	for {
		length, err := c.ReadU8(pos)
		if err != nil {
			return "", 0, fmt.Errorf("name at offset %d: %w", off, err)
		}

		switch {
		case length == 0:
			if consumed < 0 {
				consumed = pos + 1 - off
			}
			*bufp = buf
			return string(buf), consumed, nil

		case length&pointerMask == pointerMask:
			lo, err := c.ReadU8(pos + 1)
			if err != nil {
				return "", 0, fmt.Errorf("compression pointer at offset %d: %w", pos, err)
			}
			if consumed < 0 {
				consumed = pos + 2 - off
			}
			target := int(length&^pointerMask)<<8 | int(lo)
			if target >= len(msg) {
				return "", 0, fmt.Errorf("%w: compression pointer at offset %d targets %d beyond %d bytes",
					wire.ErrTruncatedData, pos, target, len(msg))
			}
			if visited == nil {
				visited = make(map[int]struct{}, 4)
			}
			if _, seen := visited[target]; seen {
				return "", 0, fmt.Errorf("%w: pointer at offset %d revisits offset %d", wire.ErrCompressionLoop, pos, target)
			}
			visited[target] = struct{}{}
			pos = target

		case length > MaxLabelLength:
			// 0x40 and 0x80 prefixes are reserved label types.
			return "", 0, fmt.Errorf("%w: invalid label length %d at offset %d", wire.ErrMalformedRecord, length, pos)

		default:
			label, err := c.Slice(pos+1, int(length))
			if err != nil {
				return "", 0, fmt.Errorf("label at offset %d: %w", pos, err)
			}
			wireLen += 1 + int(length)
			if wireLen+1 > MaxNameLength {
				return "", 0, fmt.Errorf("%w: name at offset %d exceeds %d bytes", wire.ErrNameTooLong, off, MaxNameLength)
			}
			if len(buf) > 0 {
				buf = append(buf, '.')
			}
			buf = appendEscapedLabel(buf, label)
			pos += 1 + int(length)
		}
	}
}

// readName decodes the name at the cursor position and advances past it.
func readName(c *wire.Cursor) (string, error) {
	name, n, err := DecodeName(c.Buffer(), c.Pos())
	if err != nil {
		return "", err
	}
	if err := c.Skip(n); err != nil {
		return "", err
	}
	return name, nil
}

// appendEscapedLabel appends label to buf in presentation form.
func appendEscapedLabel(buf, label []byte) []byte {
	for _, b := range label {
		switch {
		case b == '.' || b == '\\':
			buf = append(buf, '\\', b)
		case b < 0x21 || b > 0x7E:
			buf = append(buf, '\\', '0'+b/100, '0'+b/10%10, '0'+b%10)
		default:
			buf = append(buf, b)
		}
	}
	return buf
}

// EncodeName encodes a domain name to DNS wire format (RFC 1035 Section 3.1)
// without compression.
//
// Example: "www.example.com" encodes as:
//
//	[3]www[7]example[3]com[0]
//
// A trailing dot is accepted; "" and "." encode the root as a single zero byte.
// Escapes produced by DecodeName (\. \\ \DDD) are accepted.
func EncodeName(name string) ([]byte, error) {
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	out := make([]byte, 0, len(name)+2)
	label := make([]byte, 0, MaxLabelLength)
	flush := func() error {
		if len(label) == 0 {
			return fmt.Errorf("%w: empty label in %q", wire.ErrMalformedRecord, name)
		}
		if len(label) > MaxLabelLength {
			return fmt.Errorf("%w: label too long (%d > %d) in %q", wire.ErrMalformedRecord, len(label), MaxLabelLength, name)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
		label = label[:0]
		return nil
	}

	endsWithDot := false
	for i := 0; i < len(name); i++ {
		ch := name[i]
		endsWithDot = false
		switch ch {
		case '.':
			if err := flush(); err != nil {
				return nil, err
			}
			endsWithDot = true
		case '\\':
			b, n, err := unescape(name[i+1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %w in %q", wire.ErrMalformedRecord, err, name)
			}
			label = append(label, b)
			i += n
		default:
			label = append(label, ch)
		}
	}
	if !endsWithDot {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	out = append(out, 0)

	if len(out) > MaxNameLength {
		return nil, fmt.Errorf("%w: encoded name is %d bytes", wire.ErrNameTooLong, len(out))
	}
	return out, nil
}

// unescape reads the escape following a backslash and returns the byte and
// how many characters it used.
func unescape(s string) (byte, int, error) {
	if len(s) == 0 {
		return 0, 0, errors.New("dangling escape")
	}
	if s[0] < '0' || s[0] > '9' {
		return s[0], 1, nil
	}
	if len(s) < 3 {
		return 0, 0, errors.New("short decimal escape")
	}
	v := 0
	for _, d := range []byte(s[:3]) {
		if d < '0' || d > '9' {
			return 0, 0, errors.New("bad decimal escape")
		}
		v = v*10 + int(d-'0')
	}
	if v > 0xFF {
		return 0, 0, errors.New("decimal escape out of range")
	}
	return byte(v), 3, nil
}
