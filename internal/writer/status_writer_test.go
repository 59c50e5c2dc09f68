// internal/writer/status_writer_test.go
package writer

import (
	"reflect"
	"testing"

	"github.com/Tubbz-alt/pabv-control/internal/status"
)

func newTestWriter(t *testing.T, cli *fakeEndpointClient) (*blockWriter, uint16) {
	t.Helper()

	plan := &StatusPlan{
		Endpoint:   "status-endpoint",
		UnitID:     1,
		BaseSlot:   2,
		DeviceName: "AMBU-01",
	}
	w, enabled := NewDeviceStatusWriter(plan, map[string]endpointClient{"status-endpoint": cli})
	if !enabled {
		t.Fatalf("status writer should be enabled")
	}
	return w, plan.BaseSlot * status.SlotsPerDevice
}

func TestFirstWriteSendsBlockWithName(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, base := newTestWriter(t, cli)

	if err := w.WriteStatus(status.Snapshot{Health: status.HealthOK, RelayState: 1, Serial: 1}); err != nil {
		t.Fatalf("block write failed: %v", err)
	}

	got := cli.last()
	if got.unitID != 1 || got.addr != base || len(got.regs) != status.SlotsPerDevice {
		t.Fatalf("block write: unit=%d addr=%d regs=%d", got.unitID, got.addr, len(got.regs))
	}
	name := got.regs[status.SlotDeviceNameStart : status.SlotDeviceNameEnd+1]
	if !reflect.DeepEqual(name, status.EncodeName("AMBU-01")) {
		t.Fatalf("name slots: %v", name)
	}
	if got.regs[status.SlotSerialLo] != 1 {
		t.Fatalf("serial slot: %d", got.regs[status.SlotSerialLo])
	}
}

func TestChangedSlotOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, base := newTestWriter(t, cli)

	s := status.Snapshot{Health: status.HealthOK, Serial: 1}
	_ = w.WriteStatus(s)

	s.Serial = 2
	if err := w.WriteStatus(s); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}
	got := cli.last()
	if got.addr != base+status.SlotSerialLo || !reflect.DeepEqual(got.regs, []uint16{2}) {
		t.Fatalf("incremental write: addr=%d regs=%v", got.addr, got.regs)
	}
}

func TestAdjacentSlotsMerged(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, base := newTestWriter(t, cli)

	_ = w.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: status.ErrActuator, SecondsInError: 3})
	before := len(cli.writes)

	if err := w.WriteStatus(status.Snapshot{Health: status.HealthOK, RunMode: 1}); err != nil {
		t.Fatalf("recovery write failed: %v", err)
	}

	writes := cli.writes[before:]
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}
	if writes[0].addr != base || !reflect.DeepEqual(writes[0].regs, []uint16{status.HealthOK, status.ErrNone, 0}) {
		t.Fatalf("live run: addr=%d regs=%v", writes[0].addr, writes[0].regs)
	}
	if writes[1].addr != base+status.SlotRunMode || !reflect.DeepEqual(writes[1].regs, []uint16{1}) {
		t.Fatalf("run mode: addr=%d regs=%v", writes[1].addr, writes[1].regs)
	}
}

func TestUnchangedSnapshotWritesNothing(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, _ := newTestWriter(t, cli)

	s := status.Snapshot{Health: status.HealthOK, CycleCount: 3}
	_ = w.WriteStatus(s)
	before := len(cli.writes)

	if err := w.WriteStatus(s); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if len(cli.writes) != before {
		t.Fatalf("expected no writes, got %d", len(cli.writes)-before)
	}
}

func TestFailureForcesBlockRewrite(t *testing.T) {
	cli := &fakeEndpointClient{}
	w, _ := newTestWriter(t, cli)

	_ = w.WriteStatus(status.Snapshot{Health: status.HealthOK})

	cli.fail = true
	if err := w.WriteStatus(status.Snapshot{Health: status.HealthOK, RelayState: 2}); err == nil {
		t.Fatalf("expected incremental failure")
	}

	cli.fail = false
	if err := w.WriteStatus(status.Snapshot{Health: status.HealthOK, RelayState: 2}); err != nil {
		t.Fatalf("recovery write failed: %v", err)
	}
	if n := len(cli.last().regs); n != status.SlotsPerDevice {
		t.Fatalf("expected block after failure, got %d regs", n)
	}
}

func TestFailedBlockRetried(t *testing.T) {
	cli := &fakeEndpointClient{fail: true}
	w, _ := newTestWriter(t, cli)

	if err := w.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected block failure")
	}
	cli.fail = false
	if err := w.WriteStatus(status.Snapshot{}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if n := len(cli.last().regs); n != status.SlotsPerDevice {
		t.Fatalf("expected block on retry, got %d regs", n)
	}
}

func TestMissingClient(t *testing.T) {
	w, _ := NewDeviceStatusWriter(&StatusPlan{Endpoint: "nowhere"}, map[string]endpointClient{})
	if err := w.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func TestDisabledWithoutPlan(t *testing.T) {
	if _, enabled := NewDeviceStatusWriter(nil, nil); enabled {
		t.Fatalf("status writer should be disabled without a plan")
	}
}
