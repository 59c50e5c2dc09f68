// internal/runner/runner.go
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/relay"
	"github.com/Tubbz-alt/pabv-control/internal/status"
)

// Defaults.
const (
	DefaultTick         = 10 * time.Millisecond
	DefaultReportMillis = 1000
)

// Controller is the configuration side of a tick.
type Controller interface {
	Setup(ctime uint32) params.Parameters
	Update(ctime uint32)
	SerialNumber() uint32
}

// Relay is the actuator side of a tick.
type Relay interface {
	Setup(ctime uint32)
	Update(ctime uint32)
	Snapshot() relay.Snapshot
	SendString() error
}

// ParamSource supplies the live parameters.
type ParamSource interface {
	Snapshot() params.Parameters
}

// HealthSource reports whether an input is delivering fresh data.
type HealthSource interface {
	Healthy() bool
}

// MuteSource reports whether the audible alarm is muted.
type MuteSource interface {
	Muted() bool
}

type Config struct {
	Tick         time.Duration
	ReportMillis uint32 // relay diagnostic line period, 0 disables
}

// Runner drives the controller and the relay from one goroutine and
// composes the device status block.
type Runner struct {
	cfg    Config
	clock  Clock
	ctrl   Controller
	relay  Relay
	params ParamSource
	sensor HealthSource
	alarm  MuteSource
	log    logrus.FieldLogger

	lastReport uint32
	persistErr atomic.Bool

	mu      sync.Mutex
	tracker status.Tracker
	now     func() time.Time
}

type Option func(*Runner)

// WithClock replaces the monotonic tick clock.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithSensor reports sensor staleness in the status block.
func WithSensor(h HealthSource) Option {
	return func(r *Runner) { r.sensor = h }
}

// WithAlarm reports the mute latch in the status flags.
func WithAlarm(m MuteSource) Option {
	return func(r *Runner) { r.alarm = m }
}

func New(cfg Config, ctrl Controller, rel Relay, src ParamSource, log logrus.FieldLogger, opts ...Option) *Runner {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	r := &Runner{
		cfg:    cfg,
		clock:  MonotonicClock(),
		ctrl:   ctrl,
		relay:  rel,
		params: src,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Setup loads the configuration and asserts the relay off.
func (r *Runner) Setup() params.Parameters {
	ctime := r.clock()
	p := r.ctrl.Setup(ctime)
	r.relay.Setup(ctime)
	r.lastReport = ctime

	r.log.WithFields(logrus.Fields{
		"run_state": p.RunState,
		"run_mode":  p.RunMode,
		"on_ms":     p.OnTimeMillis(),
		"off_ms":    p.OffTimeMillis(),
	}).Info("control core ready")
	return p
}

// Step runs one tick at ctime: configuration first, then the relay.
func (r *Runner) Step(ctime uint32) {
	r.ctrl.Update(ctime)
	r.relay.Update(ctime)

	if r.cfg.ReportMillis == 0 || ctime-r.lastReport < r.cfg.ReportMillis {
		return
	}
	r.lastReport = ctime
	if err := r.relay.SendString(); err != nil {
		r.log.WithError(err).Debug("relay report dropped")
	}
}

// Run ticks until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Step(r.clock())
		}
	}
}

// ObserveSave is a params.WithSaveHook callback.
func (r *Runner) ObserveSave(err error) {
	r.persistErr.Store(err != nil)
}

// Status composes the current status block. Safe from any goroutine.
func (r *Runner) Status() status.Snapshot {
	rs := r.relay.Snapshot()
	p := r.params.Snapshot()

	s := status.Snapshot{
		RelayState: uint16(rs.State),
		CycleCount: rs.CycleCount,
		RunState:   uint16(p.RunState),
		RunMode:    uint16(p.RunMode),
		Serial:     r.ctrl.SerialNumber(),
	}
	if rs.Energized {
		s.Flags |= status.FlagEnergized
	}
	if rs.InterlockHeld {
		s.Flags |= status.FlagInterlockHeld
	}
	if r.alarm != nil && r.alarm.Muted() {
		s.Flags |= status.FlagAlarmMuted
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Observe(s, r.errorCode(rs), r.now())
}

// errorCode picks the most severe active fault.
func (r *Runner) errorCode(rs relay.Snapshot) uint16 {
	switch {
	case rs.Faulted:
		return status.ErrActuator
	case r.persistErr.Load():
		return status.ErrPersist
	case r.sensor != nil && !r.sensor.Healthy():
		return status.ErrSensor
	default:
		return status.ErrNone
	}
}
