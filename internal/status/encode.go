// internal/status/encode.go
package status

// Encode converts a Snapshot into a full device status block.
// Device name slots are left zero; the writer owns them.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError

	regs[SlotRelayState] = s.RelayState
	regs[SlotCycleCountHi] = uint16(s.CycleCount >> 16)
	regs[SlotCycleCountLo] = uint16(s.CycleCount)
	regs[SlotRunState] = s.RunState
	regs[SlotRunMode] = s.RunMode
	regs[SlotSerialHi] = uint16(s.Serial >> 16)
	regs[SlotSerialLo] = uint16(s.Serial)
	regs[SlotFlags] = s.Flags

	return regs
}

// EncodeName packs up to DeviceNameMaxChars of name into the name slots,
// two characters per register, high byte first. Bytes outside printable
// ASCII become '?'. Unused slots are zero.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)
	if len(name) > DeviceNameMaxChars {
		name = name[:DeviceNameMaxChars]
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		if i%2 == 0 {
			out[i/2] |= uint16(c) << 8
		} else {
			out[i/2] |= uint16(c)
		}
	}
	return out
}
