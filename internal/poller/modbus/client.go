// internal/poller/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Reader is the raw register surface of a shared endpoint connection.
// Payloads are big-endian register data without the byte count.
type Reader interface {
	ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]byte, error)
	ReadInputRegisters(unitID uint8, addr, qty uint16) ([]byte, error)
}

// Registers binds a Reader to one unit and decodes its payloads.
type Registers struct {
	r    Reader
	unit uint8
}

func New(r Reader, unitID uint8) (*Registers, error) {
	if r == nil {
		return nil, errors.New("modbus registers: reader required")
	}
	return &Registers{r: r, unit: unitID}, nil
}

func (c *Registers) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	return c.read(c.r.ReadHoldingRegisters, addr, qty)
}

func (c *Registers) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	return c.read(c.r.ReadInputRegisters, addr, qty)
}

func (c *Registers) read(fn func(uint8, uint16, uint16) ([]byte, error), addr, qty uint16) ([]uint16, error) {
	if qty == 0 {
		return nil, nil
	}
	p, err := fn(c.unit, addr, qty)
	if err != nil {
		return nil, err
	}
	return decode(p, qty)
}

// decode keeps the first qty registers; trailing bytes are ignored.
func decode(p []byte, qty uint16) ([]uint16, error) {
	if len(p)%2 != 0 {
		return nil, fmt.Errorf("modbus registers: odd payload length %d", len(p))
	}
	if len(p) < int(qty)*2 {
		return nil, fmt.Errorf("modbus registers: %d bytes for %d registers", len(p), qty)
	}

	out := make([]uint16, qty)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(p[2*i:])
	}
	return out, nil
}
