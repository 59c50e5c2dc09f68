// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	cfg "github.com/Tubbz-alt/pabv-control/internal/config"
	pmodbus "github.com/Tubbz-alt/pabv-control/internal/poller/modbus"
)

// BuildPressure binds the transducer register to a poller and a sample holder.
// r is the shared connection for the sensor endpoint.
func BuildPressure(s cfg.SensorConfig, r pmodbus.Reader) (*Poller, *Pressure, error) {
	regs, err := pmodbus.New(r, s.UnitID)
	if err != nil {
		return nil, nil, err
	}

	p, err := New(Config{
		Name:     fmt.Sprintf("pressure@%s/%d", s.Endpoint, s.UnitID),
		Interval: time.Duration(s.IntervalMs) * time.Millisecond,
		FC:       s.FC,
		Address:  s.Address,
	}, regs)
	if err != nil {
		return nil, nil, err
	}

	return p, NewPressure(PressureConfig{
		Scale:  s.Scale,
		Offset: s.Offset,
		Signed: s.Signed,
		Stale:  time.Duration(s.StaleMs) * time.Millisecond,
	}), nil
}
