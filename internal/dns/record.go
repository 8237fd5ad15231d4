package dns

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/netip"

	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/jroosing/dnstrace/internal/wire"
)

// rrFixedSize is TYPE(2) + CLASS(2) + TTL(4) + RDLENGTH(2).
const rrFixedSize = 10

// ResourceRecord is one answer, authority or additional entry
// (RFC 1035 Section 4.1.3).
type ResourceRecord struct {
	Name     string
	Type     RecordType
	Class    uint16
	TTL      uint32
	RDLength uint16
	Data     RData
}

// RData is the type-specific payload of a resource record.
//
// Implementations: *AData, *AAAAData, *CNAMEData and *RawData. Every type the
// decoder does not interpret (NS, SOA, MX, SRV, unknown codes, ...) is carried
// as *RawData.
type RData interface {
	// String renders the payload for display.
	String() string
	// MarshalRData encodes the payload to wire format.
	MarshalRData() ([]byte, error)

	rdata()
}

// AData is the payload of an A record.
type AData struct {
	Addr netip.Addr
}

func (d *AData) String() string { return d.Addr.String() }

func (d *AData) MarshalRData() ([]byte, error) {
	if !d.Addr.Is4() {
		return nil, fmt.Errorf("%w: A record needs an IPv4 address, got %v", wire.ErrMalformedRecord, d.Addr)
	}
	b := d.Addr.As4()
	return b[:], nil
}

func (*AData) rdata() {}

// AAAAData is the payload of an AAAA record.
type AAAAData struct {
	Addr netip.Addr
}

func (d *AAAAData) String() string { return d.Addr.String() }

func (d *AAAAData) MarshalRData() ([]byte, error) {
	if !d.Addr.IsValid() {
		return nil, fmt.Errorf("%w: AAAA record has no address", wire.ErrMalformedRecord)
	}
	b := d.Addr.As16()
	return b[:], nil
}

func (*AAAAData) rdata() {}

// CNAMEData is the payload of a CNAME record.
type CNAMEData struct {
	Target string
}

func (d *CNAMEData) String() string { return d.Target }

func (d *CNAMEData) MarshalRData() ([]byte, error) { return EncodeName(d.Target) }

func (*CNAMEData) rdata() {}

// RawData holds RDATA the decoder keeps uninterpreted.
type RawData struct {
	Bytes []byte
}

// String uses the RFC 3597 generic presentation: \# <length> <hex>.
func (d *RawData) String() string {
	if len(d.Bytes) == 0 {
		return `\# 0`
	}
	return fmt.Sprintf(`\# %d %s`, len(d.Bytes), hex.EncodeToString(d.Bytes))
}

func (d *RawData) MarshalRData() ([]byte, error) { return d.Bytes, nil }

func (*RawData) rdata() {}

// ParseRecord reads a resource record at the cursor position and advances
// past its RDATA.
func ParseRecord(c *wire.Cursor) (ResourceRecord, error) {
	name, err := readName(c)
	if err != nil {
		return ResourceRecord{}, err
	}
	if c.Remaining(c.Pos()) < rrFixedSize {
		return ResourceRecord{}, fmt.Errorf("%w: record fields for %q", wire.ErrTruncatedData, name)
	}
	rrType, _ := c.U16()
	rrClass, _ := c.U16()
	ttl, _ := c.U32()
	rdlen, _ := c.U16()

	rr := ResourceRecord{
		Name:     name,
		Type:     RecordType(rrType),
		Class:    rrClass,
		TTL:      ttl,
		RDLength: rdlen,
	}

	start := c.Pos()
	data, err := parseRData(c, rr.Type, start, int(rdlen))
	if err != nil {
		return ResourceRecord{}, fmt.Errorf("%s record %q: %w", rr.Type, name, err)
	}
	if err := c.Seek(start + int(rdlen)); err != nil {
		return ResourceRecord{}, err
	}
	rr.Data = data
	return rr, nil
}

// parseRData interprets RDATA by type. Fixed-size types are checked against
// their declared length before the buffer bounds, so a wrong RDLENGTH is
// reported as a malformed record rather than as truncation.
func parseRData(c *wire.Cursor, rt RecordType, start, rdlen int) (RData, error) {
	switch rt {
	case TypeA:
		if rdlen != 4 {
			return nil, fmt.Errorf("%w: A rdata must be 4 bytes (RFC 1035 §3.4.1), got %d", wire.ErrMalformedRecord, rdlen)
		}
		b, err := c.Slice(start, 4)
		if err != nil {
			return nil, err
		}
		return &AData{Addr: netip.AddrFrom4([4]byte(b))}, nil

	case TypeAAAA:
		if rdlen != 16 {
			return nil, fmt.Errorf("%w: AAAA rdata must be 16 bytes (RFC 3596 §2.2), got %d", wire.ErrMalformedRecord, rdlen)
		}
		b, err := c.Slice(start, 16)
		if err != nil {
			return nil, err
		}
		return &AAAAData{Addr: netip.AddrFrom16([16]byte(b))}, nil

	case TypeCNAME:
		if _, err := c.Slice(start, rdlen); err != nil {
			return nil, err
		}
		target, n, err := DecodeName(c.Buffer(), start)
		if err != nil {
			return nil, err
		}
		if n != rdlen {
			return nil, fmt.Errorf("%w: CNAME rdata length %d but name occupies %d bytes", wire.ErrMalformedRecord, rdlen, n)
		}
		return &CNAMEData{Target: target}, nil

	default:
		b, err := c.ReadBytes(start, rdlen)
		if err != nil {
			return nil, err
		}
		return &RawData{Bytes: b}, nil
	}
}

// Marshal serializes the record without name compression. RDLENGTH is taken
// from the encoded payload, not from the RDLength field.
func (rr ResourceRecord) Marshal() ([]byte, error) {
	name, err := EncodeName(rr.Name)
	if err != nil {
		return nil, err
	}
	var rdata []byte
	if rr.Data != nil {
		if rdata, err = rr.Data.MarshalRData(); err != nil {
			return nil, err
		}
	}
	if len(rdata) > 0xFFFF {
		return nil, fmt.Errorf("rdata too large: %d bytes (max 65535)", len(rdata))
	}

	out := make([]byte, 0, len(name)+rrFixedSize+len(rdata))
	out = append(out, name...)
	out = binary.BigEndian.AppendUint16(out, uint16(rr.Type))
	out = binary.BigEndian.AppendUint16(out, rr.Class)
	out = binary.BigEndian.AppendUint32(out, rr.TTL)
	out = binary.BigEndian.AppendUint16(out, helpers.ClampIntToUint16(len(rdata)))
	out = append(out, rdata...)
	return out, nil
}
