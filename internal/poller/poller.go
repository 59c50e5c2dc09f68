// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"
)

// RegisterClient reads 16-bit registers from one unit.
type RegisterClient interface {
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// Config fixes what a poller samples and how often.
type Config struct {
	Name     string
	Interval time.Duration
	FC       uint8 // 3 holding, 4 input
	Address  uint16
	Count    uint16 // 0 means 1
}

// Poller samples one register window on a fixed period.
type Poller struct {
	cfg  Config
	read func(addr, qty uint16) ([]uint16, error)
	now  func() time.Time
}

func New(cfg Config, client RegisterClient) (*Poller, error) {
	switch {
	case cfg.Name == "":
		return nil, errors.New("poller: name required")
	case cfg.Interval <= 0:
		return nil, fmt.Errorf("poller %s: interval must be > 0", cfg.Name)
	case client == nil:
		return nil, fmt.Errorf("poller %s: client required", cfg.Name)
	}
	if cfg.Count == 0 {
		cfg.Count = 1
	}

	p := &Poller{cfg: cfg, now: time.Now}
	switch cfg.FC {
	case 3:
		p.read = client.ReadHoldingRegisters
	case 4:
		p.read = client.ReadInputRegisters
	default:
		return nil, fmt.Errorf("poller %s: fc %d does not read registers", cfg.Name, cfg.FC)
	}
	return p, nil
}

func (p *Poller) Name() string { return p.cfg.Name }

// Sample performs one read. A short response counts as a failure.
func (p *Poller) Sample() Sample {
	s := Sample{Name: p.cfg.Name, At: p.now()}

	regs, err := p.read(p.cfg.Address, p.cfg.Count)
	switch {
	case err != nil:
		s.Err = fmt.Errorf("%s: %w", p.cfg.Name, err)
	case len(regs) < int(p.cfg.Count):
		s.Err = fmt.Errorf("%s: got %d registers, want %d", p.cfg.Name, len(regs), p.cfg.Count)
	default:
		s.Registers = regs[:p.cfg.Count]
	}
	return s
}
