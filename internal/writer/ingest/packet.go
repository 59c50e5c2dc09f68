// internal/writer/ingest/packet.go
package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Raw Ingest v1 wire format. All fields are big-endian.
//
//	0-1  magic "RI"
//	2    version
//	3    area
//	4-5  unit id
//	6-7  start address
//	8-9  register count
//	10+  registers
const (
	headerLen = 10
	versionV1 = 0x01

	// AreaHolding addresses the collector's holding register table.
	AreaHolding byte = 0x03

	respOK       byte = 0x00
	respRejected byte = 0x01
)

var magic = [2]byte{'R', 'I'}

// Packet is one register write for the collector.
type Packet struct {
	Area byte
	Unit uint8
	Addr uint16
	Regs []uint16
}

func (p Packet) MarshalBinary() ([]byte, error) {
	if len(p.Regs) == 0 {
		return nil, errors.New("writer ingest: empty register block")
	}
	if len(p.Regs) > math.MaxUint16 {
		return nil, fmt.Errorf("writer ingest: %d registers exceed one packet", len(p.Regs))
	}

	b := make([]byte, headerLen, headerLen+2*len(p.Regs))
	copy(b, magic[:])
	b[2] = versionV1
	b[3] = p.Area
	binary.BigEndian.PutUint16(b[4:], uint16(p.Unit))
	binary.BigEndian.PutUint16(b[6:], p.Addr)
	binary.BigEndian.PutUint16(b[8:], uint16(len(p.Regs)))

	for _, r := range p.Regs {
		b = binary.BigEndian.AppendUint16(b, r)
	}
	return b, nil
}

// ackError maps the collector's one-byte reply.
func ackError(code byte) error {
	switch code {
	case respOK:
		return nil
	case respRejected:
		return errors.New("writer ingest: rejected")
	default:
		return fmt.Errorf("writer ingest: unknown status 0x%02x", code)
	}
}
