package wire

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a read-only view over a frame buffer.
//
// Every accessor validates the requested range against the buffer length and
// reports ErrTruncatedData instead of reading out of bounds. Offset-based
// reads (ReadU8, ReadU16, ...) leave the cursor position untouched; the
// sequential helpers (U8, U16, ...) read at Pos and advance it on success.
//
// Multi-byte integers are decoded in network byte order (big-endian).
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf. The cursor never modifies or retains copies of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Buffer returns the underlying bytes. Decoders that need absolute offsets
// into the whole message (DNS compression pointers) read through it.
func (c *Cursor) Buffer() []byte { return c.buf }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Pos returns the sequential read position.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns how many bytes are available from off to the end of the
// buffer. Offsets outside the buffer yield 0.
func (c *Cursor) Remaining(off int) int {
	if off < 0 || off >= len(c.buf) {
		return 0
	}
	return len(c.buf) - off
}

// Seek moves the sequential position to off. Seeking to len(buf) is allowed
// and leaves nothing to read.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return fmt.Errorf("%w: seek to %d beyond %d bytes", ErrTruncatedData, off, len(c.buf))
	}
	c.pos = off
	return nil
}

// Skip advances the sequential position by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.check(c.pos, n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// check validates that n bytes can be read at off.
func (c *Cursor) check(off, n int) error {
	if off < 0 || n < 0 || n > len(c.buf) || off > len(c.buf)-n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedData, n, off, len(c.buf))
	}
	return nil
}

// ReadU8 returns the byte at off.
func (c *Cursor) ReadU8(off int) (uint8, error) {
	if err := c.check(off, 1); err != nil {
		return 0, err
	}
	return c.buf[off], nil
}

// ReadU16 returns the big-endian uint16 at off.
func (c *Cursor) ReadU16(off int) (uint16, error) {
	if err := c.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(c.buf[off : off+2]), nil
}

// ReadU32 returns the big-endian uint32 at off.
func (c *Cursor) ReadU32(off int) (uint32, error) {
	if err := c.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(c.buf[off : off+4]), nil
}

// ReadBytes returns a copy of the n bytes at off. The copy lets decoded values
// outlive the frame buffer, which belongs to the capture loop.
func (c *Cursor) ReadBytes(off, n int) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[off:off+n])
	return out, nil
}

// Slice returns the n bytes at off without copying.
func (c *Cursor) Slice(off, n int) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return c.buf[off : off+n : off+n], nil
}

// U8 reads one byte at Pos and advances.
func (c *Cursor) U8() (uint8, error) {
	v, err := c.ReadU8(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos++
	return v, nil
}

// U16 reads a big-endian uint16 at Pos and advances.
func (c *Cursor) U16() (uint16, error) {
	v, err := c.ReadU16(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32 at Pos and advances.
func (c *Cursor) U32() (uint32, error) {
	v, err := c.ReadU32(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

// Bytes copies n bytes at Pos and advances.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	v, err := c.ReadBytes(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return v, nil
}
