package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// pcapngMagic is the block type of a pcapng Section Header Block.
const pcapngMagic = 0x0A0D0D0A

// FileSource replays a pcap or pcapng capture file.
type FileSource struct {
	f    *os.File
	r    gopacket.PacketDataSource
	link layers.LinkType
}

type linkTyper interface {
	LinkType() layers.LinkType
}

// OpenFile opens a capture file, detecting pcap or pcapng from its magic
// number. Files that do not carry Ethernet frames are rejected.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	src, err := newFileSource(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

func newFileSource(f *os.File) (*FileSource, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading file magic: %w", err)
	}

	var (
		r  gopacket.PacketDataSource
		lt linkTyper
	)
	if binary.BigEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("pcapng reader: %w", err)
		}
		r, lt = ng, ng
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("pcap reader: %w", err)
		}
		r, lt = pr, pr
	}

	if err := CheckLinkType(lt.LinkType()); err != nil {
		return nil, err
	}
	return &FileSource{f: f, r: r, link: lt.LinkType()}, nil
}

// ReadPacketData returns the next frame, or io.EOF at the end of the file.
func (s *FileSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return s.r.ReadPacketData()
}

// LinkType returns the file's link type.
func (s *FileSource) LinkType() layers.LinkType { return s.link }

// Close closes the underlying file.
func (s *FileSource) Close() error { return s.f.Close() }
