// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	RelayState uint16
	CycleCount uint32
	RunState   uint16
	RunMode    uint16
	Serial     uint32
	Flags      uint16
}
