// internal/status/status_test.go
package status

import (
	"testing"
	"time"
)

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{
		Health:         HealthOK,
		LastErrorCode:  ErrNone,
		SecondsInError: 0,
		RelayState:     3,
		CycleCount:     0x00012345,
		RunState:       3,
		RunMode:        1,
		Serial:         0xABCD0007,
		Flags:          FlagEnergized | FlagAlarmMuted,
	})

	if len(regs) != SlotsPerDevice {
		t.Fatalf("expected %d regs, got %d", SlotsPerDevice, len(regs))
	}

	want := map[int]uint16{
		SlotHealthCode:   HealthOK,
		SlotRelayState:   3,
		SlotCycleCountHi: 0x0001,
		SlotCycleCountLo: 0x2345,
		SlotRunState:     3,
		SlotRunMode:      1,
		SlotSerialHi:     0xABCD,
		SlotSerialLo:     0x0007,
		SlotFlags:        FlagEnergized | FlagAlarmMuted,
	}
	for slot, v := range want {
		if regs[slot] != v {
			t.Fatalf("slot %d: got=%#x want=%#x", slot, regs[slot], v)
		}
	}

	for i := SlotDeviceNameStart; i < SlotsPerDevice; i++ {
		if regs[i] != 0 {
			t.Fatalf("slot %d must be left to the writer, got %#x", i, regs[i])
		}
	}
}

func TestTracker_SecondsInError(t *testing.T) {
	var tr Tracker
	t0 := time.Unix(1000, 0)

	s := tr.Observe(Snapshot{}, ErrPersist, t0)
	if s.Health != HealthError || s.SecondsInError != 0 || s.LastErrorCode != ErrPersist {
		t.Fatalf("unexpected onset snapshot: %+v", s)
	}

	s = tr.Observe(Snapshot{}, ErrActuator, t0.Add(4500*time.Millisecond))
	if s.SecondsInError != 4 {
		t.Fatalf("seconds_in_error: got=%d want=4", s.SecondsInError)
	}
	if s.LastErrorCode != ErrActuator {
		t.Fatalf("last error not updated: %d", s.LastErrorCode)
	}

	s = tr.Observe(Snapshot{}, ErrNone, t0.Add(5*time.Second))
	if s.Health != HealthOK || s.SecondsInError != 0 {
		t.Fatalf("recovery not reflected: %+v", s)
	}
}

func TestTracker_Saturates(t *testing.T) {
	var tr Tracker
	t0 := time.Unix(0, 0)

	tr.Observe(Snapshot{}, ErrSensor, t0)
	s := tr.Observe(Snapshot{}, ErrSensor, t0.Add(100000*time.Second))

	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	if s.SecondsInError != 65535 {
		t.Fatalf("expected saturation at 65535, got %d", s.SecondsInError)
	}
}

func TestEncodeName(t *testing.T) {
	regs := EncodeName("AB\x01")
	if len(regs) != SlotDeviceNameSlots {
		t.Fatalf("len=%d", len(regs))
	}
	if regs[0] != uint16('A')<<8|uint16('B') || regs[1] != uint16('?')<<8 || regs[2] != 0 {
		t.Fatalf("regs=%#v", regs[:3])
	}

	long := EncodeName("0123456789ABCDEFXYZ")
	if long[SlotDeviceNameSlots-1] != uint16('E')<<8|uint16('F') {
		t.Fatalf("truncation: %#x", long[SlotDeviceNameSlots-1])
	}
}
