// Package dissect locates DNS-over-UDP payloads inside captured Ethernet frames.
//
// The dissector is a filter, not a general packet parser: it walks the
// Ethernet, IPv4 and UDP headers just far enough to decide whether a frame
// carries a datagram from the DNS port and, if so, where its payload starts.
// It never looks at the DNS bytes themselves.
//
// Frame layout handled (RFC 894, RFC 791, RFC 768):
//
//	+-----------------+----------------------+-----------+-------------+
//	| Ethernet (14 B) | IPv4 (IHL*4 B, >=20) | UDP (8 B) | DNS payload |
//	+-----------------+----------------------+-----------+-------------+
package dissect

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/jroosing/dnstrace/internal/wire"
)

const (
	// EthernetHeaderSize is the size of an untagged Ethernet II header.
	EthernetHeaderSize = 14
	// IPv4MinHeaderSize is the size of an IPv4 header without options.
	IPv4MinHeaderSize = 20
	// UDPHeaderSize is the fixed UDP header size.
	UDPHeaderSize = 8

	// EtherTypeIPv4 is the EtherType code for IPv4.
	EtherTypeIPv4 uint16 = 0x0800
	// ProtocolUDP is the IPv4 protocol number for UDP.
	ProtocolUDP uint8 = 17
	// DNSPort is the well-known DNS server port.
	DNSPort uint16 = 53

	fragmentOffsetMask uint16 = 0x1FFF
)

// Location describes where the DNS payload sits inside a frame and which
// endpoints exchanged it.
type Location struct {
	PayloadOffset int
	PayloadLength int

	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16

	// UDPLength is the length field of the UDP header (header + data).
	// PayloadLength honors it unless the frame ends first.
	UDPLength uint16
}

// Payload returns the DNS payload slice of frame. The slice aliases frame.
func (l Location) Payload(frame []byte) []byte {
	end := l.PayloadOffset + l.PayloadLength
	if l.PayloadOffset < 0 || end > len(frame) || l.PayloadLength < 0 {
		return nil
	}
	return frame[l.PayloadOffset:end:end]
}

// Source returns the sender address and port.
func (l Location) Source() netip.AddrPort { return netip.AddrPortFrom(l.SrcIP, l.SrcPort) }

// Destination returns the receiver address and port.
func (l Location) Destination() netip.AddrPort { return netip.AddrPortFrom(l.DstIP, l.DstPort) }

// Dissector matches Ethernet/IPv4/UDP frames sent from a given source port.
type Dissector struct {
	port uint16
}

// New returns a Dissector matching datagrams whose UDP source port is port.
// A zero port selects DNSPort.
func New(port uint16) *Dissector {
	if port == 0 {
		port = DNSPort
	}
	return &Dissector{port: port}
}

// Port returns the source port the dissector matches.
func (d *Dissector) Port() uint16 { return d.port }

// Locate walks the link, network and transport headers of frame.
//
// It returns ok=false with a nil error when the frame is simply not a UDP
// datagram from the configured port. Errors are reserved for frames that claim
// to be IPv4 but are too short or carry an impossible header length.
func (d *Dissector) Locate(frame []byte) (Location, bool, error) {
	c := wire.NewCursor(frame)
	var loc Location

	// Ethernet
	etherType, err := c.ReadU16(12)
	if err != nil {
		return Location{}, false, fmt.Errorf("ethernet header: %w", err)
	}
	if etherType != EtherTypeIPv4 {
		return Location{}, false, nil
	}
	dst, _ := c.ReadBytes(0, 6)
	src, _ := c.ReadBytes(6, 6)
	loc.DstMAC = net.HardwareAddr(dst)
	loc.SrcMAC = net.HardwareAddr(src)

	// IPv4
	ipOff := EthernetHeaderSize
	verIHL, err := c.ReadU8(ipOff)
	if err != nil {
		return Location{}, false, fmt.Errorf("ipv4 header: %w", err)
	}
	if version := verIHL >> 4; version != 4 {
		return Location{}, false, fmt.Errorf("%w: ipv4 version field is %d", wire.ErrMalformedHeader, version)
	}
	ihl := int(verIHL&0x0F) * 4
	if ihl < IPv4MinHeaderSize || ihl > c.Remaining(ipOff) {
		return Location{}, false, fmt.Errorf("%w: ipv4 header length %d with %d bytes available",
			wire.ErrMalformedHeader, ihl, c.Remaining(ipOff))
	}
	proto, _ := c.ReadU8(ipOff + 9)
	if proto != ProtocolUDP {
		return Location{}, false, nil
	}
	frag, _ := c.ReadU16(ipOff + 6)
	if frag&fragmentOffsetMask != 0 {
		// Only the first fragment carries the UDP header.
		return Location{}, false, nil
	}
	srcIP, _ := c.Slice(ipOff+12, 4)
	dstIP, _ := c.Slice(ipOff+16, 4)
	loc.SrcIP = netip.AddrFrom4([4]byte(srcIP))
	loc.DstIP = netip.AddrFrom4([4]byte(dstIP))

	// UDP
	udpOff := ipOff + ihl
	if err := c.Seek(udpOff); err != nil {
		return Location{}, false, fmt.Errorf("udp header: %w", err)
	}
	if c.Remaining(udpOff) < UDPHeaderSize {
		return Location{}, false, fmt.Errorf("udp header: %w: need %d bytes at offset %d, have %d",
			wire.ErrTruncatedData, UDPHeaderSize, udpOff, c.Len())
	}
	loc.SrcPort, _ = c.U16()
	loc.DstPort, _ = c.U16()
	loc.UDPLength, _ = c.U16()
	if loc.SrcPort != d.port {
		return Location{}, false, nil
	}

	loc.PayloadOffset = udpOff + UDPHeaderSize
	loc.PayloadLength = len(frame) - loc.PayloadOffset
	// Frames under the Ethernet minimum carry trailer padding past the
	// datagram. A length field larger than the frame means the capture was
	// cut by the snaplen; the decoder then reports the truncation.
	if n := int(loc.UDPLength) - UDPHeaderSize; loc.UDPLength >= UDPHeaderSize && n <= loc.PayloadLength {
		loc.PayloadLength = n
	}
	if loc.PayloadLength <= 0 {
		return Location{}, false, fmt.Errorf("%w: empty udp payload", wire.ErrTruncatedData)
	}
	return loc, true, nil
}
