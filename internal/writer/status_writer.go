// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/Tubbz-alt/pabv-control/internal/status"
)

// blockWriter mirrors the ventilator status block into one device slot.
// The first write after start or after any failure sends the whole block,
// name included. Otherwise only changed live slots go out, adjacent ones
// merged into a single write.
type blockWriter struct {
	plan *StatusPlan
	cli  endpointClient
	name []uint16

	synced bool
	shadow [status.SlotLiveEnd]uint16
}

// NewDeviceStatusWriter returns false when plan is nil.
func NewDeviceStatusWriter(plan *StatusPlan, clients map[string]endpointClient) (*blockWriter, bool) {
	if plan == nil {
		return nil, false
	}
	return &blockWriter{
		plan: plan,
		cli:  clients[plan.Endpoint],
		name: status.EncodeName(plan.DeviceName),
	}, true
}

func (w *blockWriter) WriteStatus(s status.Snapshot) error {
	if w == nil || w.plan == nil {
		return errors.New("status writer: disabled")
	}
	if w.cli == nil {
		return fmt.Errorf("status writer: no client for endpoint %s", w.plan.Endpoint)
	}

	regs := status.Encode(s)
	if !w.synced {
		return w.writeBlock(regs)
	}

	for _, r := range w.changed(regs) {
		if err := w.cli.WriteRegisters(w.plan.UnitID, w.base()+uint16(r.from), regs[r.from:r.to]); err != nil {
			w.synced = false
			return fmt.Errorf("status writer: slots %d-%d: %w", r.from, r.to-1, err)
		}
		copy(w.shadow[r.from:r.to], regs[r.from:r.to])
	}
	return nil
}

func (w *blockWriter) writeBlock(regs []uint16) error {
	copy(regs[status.SlotDeviceNameStart:], w.name)
	if err := w.cli.WriteRegisters(w.plan.UnitID, w.base(), regs); err != nil {
		return fmt.Errorf("status writer: block: %w", err)
	}
	copy(w.shadow[:], regs)
	w.synced = true
	return nil
}

type slotRun struct{ from, to int }

// changed lists the runs of live slots that differ from the shadow.
func (w *blockWriter) changed(regs []uint16) []slotRun {
	var runs []slotRun
	for i := 0; i < status.SlotLiveEnd; i++ {
		if regs[i] == w.shadow[i] {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].to == i {
			runs[n-1].to++
			continue
		}
		runs = append(runs, slotRun{from: i, to: i + 1})
	}
	return runs
}

// base is the first register of this device's slot.
func (w *blockWriter) base() uint16 {
	return w.plan.BaseSlot * status.SlotsPerDevice
}
