// internal/protocol/broadcast.go
package protocol

import (
	"github.com/Tubbz-alt/pabv-control/internal/identity"
	"github.com/Tubbz-alt/pabv-control/internal/message"
	"github.com/Tubbz-alt/pabv-control/internal/params"
)

// Broadcast builds the periodic state announcement.
// Order is fixed: config, version, identity. Consumers correlate by sequence.
// No IO. No side effects.
func Broadcast(p params.Parameters, serial uint32, version string, id identity.ID, ctime uint32) []message.Message {
	floats := []float32{
		p.RespRate,
		p.InhTime,
		p.PipMax,
		p.PipOffset,
		p.VolMax,
		p.VolFactor,
		p.VolInThold,
		p.PeepMin,
	}
	ints := []uint32{
		uint32(p.RunState),
		serial,
		uint32(p.RunMode),
	}

	return []message.Message{
		message.NewData(message.TagConfig, ctime, floats, ints),
		message.NewString(message.TagVersion, ctime, truncate(version, message.MaxString)),
		message.NewData(message.TagCPUID, ctime, nil, id.Words()),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
