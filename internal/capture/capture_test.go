package capture_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/dnstrace/internal/capture"
	"github.com/jroosing/dnstrace/internal/trace"
)

var epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func ethFrame(t *testing.T, srcPort uint16) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 2},
		DstMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 1},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IP{8, 8, 4, 4}, DstIP: net.IP{10, 0, 0, 9},
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: 33000}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload(make([]byte, 12))
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, payload))
	return buf.Bytes()
}

func writePcap(t *testing.T, link layers.LinkType, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, link))
	for i, fr := range frames {
		ci := gopacket.CaptureInfo{Timestamp: epoch.Add(time.Duration(i) * time.Second), CaptureLength: len(fr), Length: len(fr)}
		require.NoError(t, w.WritePacket(ci, fr))
	}
	return path
}

func writePcapng(t *testing.T, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	require.NoError(t, err)
	for i, fr := range frames {
		ci := gopacket.CaptureInfo{Timestamp: epoch.Add(time.Duration(i) * time.Second), CaptureLength: len(fr), Length: len(fr)}
		require.NoError(t, w.WritePacket(ci, fr))
	}
	require.NoError(t, w.Flush())
	return path
}

type recorder struct {
	frames [][]byte
	times  []time.Time
}

func (r *recorder) HandleFrame(frame []byte, ts time.Time) trace.Verdict {
	r.frames = append(r.frames, append([]byte(nil), frame...))
	r.times = append(r.times, ts)
	return trace.Pass
}

func TestRunFileSources(t *testing.T) {
	a, b := ethFrame(t, 53), ethFrame(t, 1234)

	tests := []struct {
		name string
		path string
	}{
		{name: "pcap", path: writePcap(t, layers.LinkTypeEthernet, a, b)},
		{name: "pcapng", path: writePcapng(t, a, b)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := capture.OpenFile(tt.path)
			require.NoError(t, err)
			defer src.Close()
			assert.Equal(t, layers.LinkTypeEthernet, src.LinkType())

			rec := &recorder{}
			res, err := capture.Run(context.Background(), src, rec, nil)
			require.NoError(t, err)

			assert.Equal(t, uint64(2), res.Frames)
			assert.Equal(t, uint64(len(a)+len(b)), res.Bytes)
			require.Len(t, rec.frames, 2)
			assert.Equal(t, a, rec.frames[0])
			assert.Equal(t, b, rec.frames[1])
			assert.True(t, epoch.Equal(rec.times[0]))
			assert.True(t, epoch.Add(time.Second).Equal(rec.times[1]))
		})
	}
}

func TestOpenFile_Errors(t *testing.T) {
	_, err := capture.OpenFile(filepath.Join(t.TempDir(), "missing.pcap"))
	require.Error(t, err)

	raw := writePcap(t, layers.LinkTypeRaw, []byte{0x45, 0})
	_, err = capture.OpenFile(raw)
	assert.ErrorIs(t, err, capture.ErrUnsupportedLinkType)

	junk := filepath.Join(t.TempDir(), "junk.pcap")
	require.NoError(t, os.WriteFile(junk, []byte("not a capture file at all"), 0o600))
	_, err = capture.OpenFile(junk)
	assert.Error(t, err)
}

// scripted is a PacketDataSource returning canned results.
type scripted struct {
	steps []error
	i     int
}

func (s *scripted) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if s.i >= len(s.steps) {
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
	err := s.steps[s.i]
	s.i++
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}
	return []byte{1, 2, 3}, gopacket.CaptureInfo{}, nil
}

func TestRun_TimeoutsAndErrors(t *testing.T) {
	src := &scripted{steps: []error{nil, capture.ErrTimeout, nil}}
	rec := &recorder{}
	res, err := capture.Run(context.Background(), src, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Frames)
	assert.False(t, rec.times[0].IsZero(), "zero capture time is replaced")

	boom := errors.New("device went away")
	src = &scripted{steps: []error{nil, boom}}
	res, err = capture.Run(context.Background(), src, &recorder{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), res.Frames)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	h := capture.HandlerFunc(func([]byte, time.Time) trace.Verdict {
		calls++
		return trace.Pass
	})
	_, err := capture.Run(ctx, &scripted{steps: []error{nil}}, h, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestSelectInterface(t *testing.T) {
	ifaces := []capture.Interface{
		{Name: "eth0", Addresses: []string{"10.0.0.2"}},
		{Name: "wlan0", Description: "Wireless"},
	}

	t.Run("valid", func(t *testing.T) {
		var out bytes.Buffer
		got, err := capture.SelectInterface(strings.NewReader("2\n"), &out, ifaces)
		require.NoError(t, err)
		assert.Equal(t, "wlan0", got.Name)
		assert.Contains(t, out.String(), "1)\teth0 [10.0.0.2]")
		assert.Contains(t, out.String(), "2)\twlan0 (Wireless)")
	})

	for _, in := range []string{"0\n", "3\n", "abc\n", ""} {
		t.Run("invalid "+strings.TrimSpace(in), func(t *testing.T) {
			_, err := capture.SelectInterface(strings.NewReader(in), io.Discard, ifaces)
			assert.Error(t, err)
		})
	}

	_, err := capture.SelectInterface(strings.NewReader("1\n"), io.Discard, nil)
	assert.ErrorIs(t, err, capture.ErrNoInterfaces)
}

func TestDefaultFilter(t *testing.T) {
	assert.Equal(t, "udp and src port 53", capture.DefaultFilter(53))
	assert.Equal(t, "udp and src port 5353", capture.DefaultFilter(5353))
}
