// internal/relay/coil.go
package relay

import (
	"fmt"
	"sync/atomic"
)

// CoilWriter writes one Modbus coil.
type CoilWriter interface {
	WriteCoil(unitID uint8, addr uint16, on bool) error
}

// CoilActuator drives the relay through a single Modbus coil.
type CoilActuator struct {
	w      CoilWriter
	unitID uint8
	addr   uint16
}

func NewCoilActuator(w CoilWriter, unitID uint8, addr uint16) *CoilActuator {
	return &CoilActuator{w: w, unitID: unitID, addr: addr}
}

func (c *CoilActuator) Set(on bool) error {
	if err := c.w.WriteCoil(c.unitID, c.addr, on); err != nil {
		return fmt.Errorf("relay coil %d/%d: %w", c.unitID, c.addr, err)
	}
	return nil
}

// MemoryActuator keeps the commanded output in memory. Used without hardware.
type MemoryActuator struct {
	on atomic.Bool
}

func (m *MemoryActuator) Set(on bool) error {
	m.on.Store(on)
	return nil
}

// On returns the last commanded output.
func (m *MemoryActuator) On() bool { return m.on.Load() }
