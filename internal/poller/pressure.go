// internal/poller/pressure.go
package poller

import (
	"errors"
	"sync"
	"time"
)

// PressureConfig converts the first polled register into a pressure.
type PressureConfig struct {
	Scale  float64
	Offset float64
	Signed bool          // register is two's complement
	Stale  time.Duration // samples older than this read as zero
}

// Pressure holds the latest pressure sample.
// Observe is fed by the poller goroutine; the readers may run anywhere.
type Pressure struct {
	cfg PressureConfig
	now func() time.Time

	mu    sync.Mutex
	value float64
	at    time.Time
	err   error
}

func NewPressure(cfg PressureConfig) *Pressure {
	return &Pressure{cfg: cfg, now: time.Now}
}

// Observe folds one read into the held value.
// Failed reads keep the previous value; it ages out after Stale.
func (s *Pressure) Observe(smp Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !smp.OK() {
		s.err = smp.Err
		if s.err == nil {
			s.err = errors.New("poller pressure: empty sample")
		}
		return
	}

	raw := smp.Registers[0]
	v := float64(raw)
	if s.cfg.Signed {
		v = float64(int16(raw))
	}

	s.value = v*s.cfg.Scale + s.cfg.Offset
	s.at = smp.At
	s.err = nil
}

// Pressure returns the latest fresh sample, or 0 when none is fresh.
func (s *Pressure) Pressure() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.freshLocked() {
		return 0
	}
	return s.value
}

// Healthy reports whether the last poll succeeded and the sample is fresh.
func (s *Pressure) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err == nil && s.freshLocked()
}

// Err returns the last poll error.
func (s *Pressure) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Pressure) freshLocked() bool {
	if s.at.IsZero() {
		return false
	}
	return s.cfg.Stale <= 0 || s.now().Sub(s.at) <= s.cfg.Stale
}

// Fixed is a constant pressure source for running without a transducer.
type Fixed float64

func (f Fixed) Pressure() float64 { return float64(f) }
