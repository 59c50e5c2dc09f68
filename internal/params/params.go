// internal/params/params.go
package params

import "fmt"

// RunState is the device run/idle state carried in the persisted record.
type RunState uint8

const (
	RunForceOff RunState = 0
	RunForceOn  RunState = 1
	RunOff      RunState = 2
	RunOn       RunState = 3
)

func (s RunState) String() string {
	switch s {
	case RunForceOff:
		return "force-off"
	case RunForceOn:
		return "force-on"
	case RunOff:
		return "run-off"
	case RunOn:
		return "run-on"
	default:
		return fmt.Sprintf("run-state(%d)", uint8(s))
	}
}

// RunMode selects the control strategy.
type RunMode uint8

const (
	ModeVolume   RunMode = 0
	ModePressure RunMode = 1
)

func (m RunMode) String() string {
	switch m {
	case ModeVolume:
		return "volume"
	case ModePressure:
		return "pressure"
	default:
		return fmt.Sprintf("run-mode(%d)", uint8(m))
	}
}

// Parameters is the persisted operating record.
// Field order is the persisted order; see layout.go.
type Parameters struct {
	RespRate   float32 // breaths per minute
	InhTime    float32 // seconds
	PipMax     float32
	PipOffset  float32
	VolMax     float32
	VolFactor  float32
	VolMaxAdj  float32
	VolInThold float32
	PeepMin    float32
	RunState   RunState
	RunMode    RunMode
	Checksum   uint16
}

// Defaults returns the record used when the persisted copy fails validation.
func Defaults() Parameters {
	return Parameters{
		RespRate:   20.0,
		InhTime:    1.0,
		PipMax:     40.0,
		PipOffset:  0.0,
		VolMax:     200.0,
		VolFactor:  0.5,
		VolMaxAdj:  0.0,
		VolInThold: -2.0,
		PeepMin:    0.0,
		RunState:   RunOn,
		RunMode:    ModeVolume,
	}
}
