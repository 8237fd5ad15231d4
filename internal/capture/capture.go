// Package capture feeds frames from a packet source to a frame handler.
//
// Sources are gopacket.PacketDataSource values: a pcap or pcapng file opened
// with OpenFile, or a live interface from the live subpackage. Only Ethernet
// link types are accepted, since the dissector starts at the Ethernet header.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/jroosing/dnstrace/internal/trace"
)

var (
	// ErrTimeout is returned by sources when no frame arrived within their
	// read timeout. Run treats it as "try again".
	ErrTimeout = errors.New("capture: read timeout")

	// ErrUnsupportedLinkType is returned when a source does not carry
	// Ethernet frames.
	ErrUnsupportedLinkType = errors.New("capture: unsupported link type")
)

// Handler is the per-frame callback. The frame is only valid for the
// duration of the call.
type Handler interface {
	HandleFrame(frame []byte, ts time.Time) trace.Verdict
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(frame []byte, ts time.Time) trace.Verdict

func (f HandlerFunc) HandleFrame(frame []byte, ts time.Time) trace.Verdict { return f(frame, ts) }

// Source is a closable frame source with a known link type.
type Source interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
	Close() error
}

// Result summarizes a finished Run.
type Result struct {
	Frames uint64
	Bytes  uint64
}

// CheckLinkType rejects sources whose frames do not start with an Ethernet
// header.
func CheckLinkType(lt layers.LinkType) error {
	if lt != layers.LinkTypeEthernet {
		return fmt.Errorf("%w: %s", ErrUnsupportedLinkType, lt)
	}
	return nil
}

// DefaultFilter returns the BPF expression selecting DNS responses from port.
func DefaultFilter(port uint16) string {
	return fmt.Sprintf("udp and src port %d", port)
}

// Run reads frames from src until it is exhausted (io.EOF), ctx is
// cancelled, or a read fails. A clean end of input returns a nil error;
// cancellation returns ctx.Err().
func Run(ctx context.Context, src gopacket.PacketDataSource, h Handler, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		data, ci, err := src.ReadPacketData()
		switch {
		case err == nil:
		case errors.Is(err, ErrTimeout):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			logger.Debug("capture source exhausted", "frames", res.Frames)
			return res, nil
		default:
			return res, fmt.Errorf("reading frame %d: %w", res.Frames+1, err)
		}

		res.Frames++
		res.Bytes += uint64(len(data))

		ts := ci.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		h.HandleFrame(data, ts)
	}
}
