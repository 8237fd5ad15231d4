// Package live captures frames from a network interface with libpcap.
package live

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/jroosing/dnstrace/internal/capture"
)

// Config controls how the interface is opened.
type Config struct {
	Interface string
	Snaplen   int32
	Promisc   bool
	// Timeout bounds each read so cancellation is noticed; pcap.BlockForever
	// is not used.
	Timeout time.Duration
	// Filter is a BPF expression; empty captures everything.
	Filter string
}

// Source is an open live capture handle.
type Source struct {
	handle *pcap.Handle
}

// Open opens the interface and installs the BPF filter.
func Open(cfg Config) (*Source, error) {
	if cfg.Snaplen <= 0 {
		cfg.Snaplen = 65536
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}

	handle, err := pcap.OpenLive(cfg.Interface, cfg.Snaplen, cfg.Promisc, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", cfg.Interface, err)
	}
	if err := capture.CheckLinkType(handle.LinkType()); err != nil {
		handle.Close()
		return nil, fmt.Errorf("%s: %w", cfg.Interface, err)
	}
	if cfg.Filter != "" {
		if err := handle.SetBPFFilter(cfg.Filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("could not set BPF filter %q: %w", cfg.Filter, err)
		}
	}
	return &Source{handle: handle}, nil
}

// ReadPacketData returns the next frame. A read timeout is reported as
// capture.ErrTimeout.
func (s *Source) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.handle.ReadPacketData()
	if errors.Is(err, pcap.NextErrorTimeoutExpired) {
		return nil, ci, capture.ErrTimeout
	}
	return data, ci, err
}

// LinkType returns the handle's link type.
func (s *Source) LinkType() layers.LinkType { return s.handle.LinkType() }

// Close releases the handle.
func (s *Source) Close() error {
	s.handle.Close()
	return nil
}

// Interfaces lists capture devices with their IP addresses.
func Interfaces() ([]capture.Interface, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}
	out := make([]capture.Interface, 0, len(devs))
	for _, d := range devs {
		iface := capture.Interface{Name: d.Name, Description: d.Description}
		for _, a := range d.Addresses {
			if a.IP != nil {
				iface.Addresses = append(iface.Addresses, a.IP.String())
			}
		}
		out = append(out, iface)
	}
	return out, nil
}
