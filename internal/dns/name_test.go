package dns_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jroosing/dnstrace/internal/dns"
	"github.com/jroosing/dnstrace/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func label(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func TestDecodeName(t *testing.T) {
	// example.com at 0, then www + pointer to 0 at 13.
	shared := append(append(label("example"), label("com")...), 0)
	shared = append(shared, label("www")...)
	shared = append(shared, 0xC0, 0x00)

	tests := []struct {
		name     string
		msg      []byte
		off      int
		want     string
		consumed int
	}{
		{
			name:     "plain labels",
			msg:      []byte{3, 'w', 'w', 'w', 6, 'g', 'o', 'o', 'g', 'l', 'e', 3, 'c', 'o', 'm', 0},
			want:     "www.google.com",
			consumed: 16,
		},
		{name: "root", msg: []byte{0}, want: "", consumed: 1},
		{name: "case preserved", msg: append(label("WwW"), 0), want: "WwW", consumed: 5},
		{name: "suffix pointer", msg: shared, off: 13, want: "www.example.com", consumed: 6},
		{name: "bare pointer", msg: shared, off: 17, want: "example.com", consumed: 2},
		{name: "target of pointer", msg: shared, off: 0, want: "example.com", consumed: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := dns.DecodeName(tt.msg, tt.off)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.consumed, n)
		})
	}
}

func TestDecodeName_PointerChain(t *testing.T) {
	// com at 0, example+ptr(0) at 5, www+ptr(5) at 15.
	msg := append(label("com"), 0)
	msg = append(msg, label("example")...)
	msg = append(msg, 0xC0, 0x00)
	msg = append(msg, label("www")...)
	msg = append(msg, 0xC0, 0x05)

	got, n, err := dns.DecodeName(msg, 15)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", got)
	assert.Equal(t, 6, n)
}

func TestDecodeName_Errors(t *testing.T) {
	tests := []struct {
		name    string
		msg     []byte
		off     int
		wantErr error
	}{
		{name: "self pointer", msg: []byte{0xC0, 0x00}, wantErr: wire.ErrCompressionLoop},
		{name: "two pointer loop", msg: []byte{0xC0, 0x02, 0xC0, 0x00}, wantErr: wire.ErrCompressionLoop},
		{name: "label length 64", msg: append(append([]byte{64}, bytes.Repeat([]byte{'a'}, 64)...), 0), wantErr: wire.ErrMalformedRecord},
		{name: "reserved 0x80 label", msg: []byte{0x80, 0x00}, wantErr: wire.ErrMalformedRecord},
		{name: "pointer beyond message", msg: []byte{0xC0, 0x10}, wantErr: wire.ErrTruncatedData},
		{name: "pointer missing low byte", msg: []byte{0xC0}, wantErr: wire.ErrTruncatedData},
		{name: "label past end", msg: []byte{5, 'a', 'b'}, wantErr: wire.ErrTruncatedData},
		{name: "no terminator", msg: label("www"), wantErr: wire.ErrTruncatedData},
		{name: "offset past end", msg: []byte{0}, off: 4, wantErr: wire.ErrTruncatedData},
		{name: "empty message", msg: nil, wantErr: wire.ErrTruncatedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := dns.DecodeName(tt.msg, tt.off)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeName_Length(t *testing.T) {
	long := strings.Repeat("a", 63)

	t.Run("255 bytes accepted", func(t *testing.T) {
		var msg []byte
		for _, l := range []string{long, long, long, strings.Repeat("b", 61)} {
			msg = append(msg, label(l)...)
		}
		msg = append(msg, 0)
		require.Len(t, msg, 255)

		got, n, err := dns.DecodeName(msg, 0)
		require.NoError(t, err)
		assert.Equal(t, 255, n)
		assert.Len(t, got, 253)
	})

	t.Run("256 bytes rejected", func(t *testing.T) {
		var msg []byte
		for _, l := range []string{long, long, long, strings.Repeat("b", 62)} {
			msg = append(msg, label(l)...)
		}
		msg = append(msg, 0)

		_, _, err := dns.DecodeName(msg, 0)
		assert.ErrorIs(t, err, wire.ErrNameTooLong)
	})

	t.Run("expanded through pointers", func(t *testing.T) {
		// Each hop is short on the wire but the expansion is not.
		msg := append(label(long), label(long)...)
		msg = append(msg, 0)
		msg = append(msg, label(long)...)
		msg = append(msg, label(long)...)
		msg = append(msg, 0xC0, 0x00)

		_, _, err := dns.DecodeName(msg, 129)
		assert.ErrorIs(t, err, wire.ErrNameTooLong)
	})
}

func TestEncodeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{name: "root empty", in: "", want: []byte{0}},
		{name: "root dot", in: ".", want: []byte{0}},
		{name: "simple", in: "www.google.com", want: []byte{3, 'w', 'w', 'w', 6, 'g', 'o', 'o', 'g', 'l', 'e', 3, 'c', 'o', 'm', 0}},
		{name: "trailing dot", in: "a.b.", want: []byte{1, 'a', 1, 'b', 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dns.EncodeName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeName_Errors(t *testing.T) {
	_, err := dns.EncodeName("a..b")
	require.ErrorIs(t, err, wire.ErrMalformedRecord)

	_, err = dns.EncodeName(strings.Repeat("x", 64) + ".com")
	require.ErrorIs(t, err, wire.ErrMalformedRecord)

	l := strings.Repeat("x", 63)
	_, err = dns.EncodeName(strings.Join([]string{l, l, l, l}, "."))
	require.ErrorIs(t, err, wire.ErrNameTooLong)
}

func TestEncodeDecodeName_RoundTrip(t *testing.T) {
	for _, name := range []string{"", "com", "www.example.com", "Mixed.Case.ORG", "_sip._udp.example.net"} {
		t.Run(name, func(t *testing.T) {
			wireName, err := dns.EncodeName(name)
			require.NoError(t, err)

			got, n, err := dns.DecodeName(wireName, 0)
			require.NoError(t, err)
			assert.Equal(t, name, got)
			assert.Equal(t, len(wireName), n)
		})
	}
}

func TestDecodeName_EscapesLabelBytes(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"terminal escape", "\x1b[2Jxy", `\027[2Jxy`},
		{"dot inside label", "a.b", `a\.b`},
		{"backslash", `a\b`, `a\\b`},
		{"space and nul", "a b\x00", `a\032b\000`},
		{"high byte", "caf\xe9", `caf\233`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := append(label(tt.label), label("com")...)
			msg = append(msg, 0)

			got, n, err := dns.DecodeName(msg, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want+".com", got)
			assert.Equal(t, len(msg), n)
			assert.NotContains(t, got, "\x1b")

			back, err := dns.EncodeName(got)
			require.NoError(t, err)
			assert.Equal(t, msg, back)
		})
	}
}

func TestEncodeName_Escapes(t *testing.T) {
	got, err := dns.EncodeName(`a\.b.c\099om`)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 'a', '.', 'b', 4, 'c', 'c', 'o', 'm', 0}, got)

	for _, bad := range []string{`a\`, `a\25`, `a\2x5`, `a\300`} {
		t.Run(bad, func(t *testing.T) {
			_, err := dns.EncodeName(bad)
			assert.ErrorIs(t, err, wire.ErrMalformedRecord)
		})
	}
}
