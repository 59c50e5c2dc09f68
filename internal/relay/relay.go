// internal/relay/relay.go
package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Tubbz-alt/pabv-control/internal/message"
	"github.com/Tubbz-alt/pabv-control/internal/params"
)

// State is the actuator cycle state.
type State uint8

const (
	Off      State = 0
	On       State = 1
	CycleOff State = 2
	CycleOn  State = 3
)

func (s State) String() string {
	switch s {
	case Off:
		return "Off"
	case On:
		return "On"
	case CycleOff:
		return "CycleOff"
	case CycleOn:
		return "CycleOn"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Energized reports whether the state drives the relay.
func (s State) Energized() bool { return s == On || s == CycleOn }

// Defaults.
const (
	DefaultMinOffMillis     uint32  = 10000
	DefaultStallMillis      uint32  = 6000
	DefaultActivityPressure float64 = 2.0
)

// Config holds the machine's timing constants. Not tunable over the protocol.
type Config struct {
	// MinOffMillis is the minimum dwell after de-energizing before the relay
	// may be energized again. Boot counts as a de-energize.
	MinOffMillis uint32
	// StallMillis is the lower bound of the stall window.
	StallMillis uint32
	// ActivityPressure is the pressure at or above which the bellows counts as active.
	ActivityPressure float64
}

func (c Config) withDefaults() Config {
	if c.MinOffMillis == 0 {
		c.MinOffMillis = DefaultMinOffMillis
	}
	if c.StallMillis == 0 {
		c.StallMillis = DefaultStallMillis
	}
	if c.ActivityPressure == 0 {
		c.ActivityPressure = DefaultActivityPressure
	}
	return c
}

// ---- collaborators ----

// Actuator drives the physical relay.
type Actuator interface {
	Set(on bool) error
}

// PressureSensor returns the latest pressure sample.
type PressureSensor interface {
	Pressure() float64
}

// ParamSource supplies the live parameters. Read only.
type ParamSource interface {
	Snapshot() params.Parameters
}

// Sender is the diagnostic output channel.
type Sender interface {
	Send(m message.Message) error
}

// ---- machine ----

type drive uint8

const (
	driveOff    drive = iota
	driveSteady       // force on: no stall watchdog
	driveWatch        // run on: stall watchdog active
)

func desiredDrive(s params.RunState) drive {
	switch s {
	case params.RunForceOn:
		return driveSteady
	case params.RunOn:
		return driveWatch
	default:
		return driveOff
	}
}

// Snapshot is a consistent view of the machine for status and metrics.
type Snapshot struct {
	State         State
	CycleCount    uint32
	Energized     bool
	InterlockHeld bool
	Unconfirmed   bool   // an off command awaits confirmation
	Faulted       bool   // last actuator command failed
	Since         uint32 // entry time of State
	Ctime         uint32
}

// Machine sequences the relay through Off, On, CycleOff and CycleOn.
//
// Update runs on the tick goroutine. Snapshot, String and SendString may be
// called from any goroutine.
type Machine struct {
	mu sync.Mutex

	cfg     Config
	params  ParamSource
	press   PressureSensor
	act     Actuator
	display Sender
	log     logrus.FieldLogger
	warn    *rate.Limiter

	state      State
	stateTime  uint32
	offTime    uint32 // last de-energize
	activity   uint32 // last pressure activity, or state entry
	cycles     uint32
	energized  bool // last commanded output
	needAssert bool // last command failed; re-send every tick
	faulted    bool // last command of either direction failed
	ctime      uint32
}

func New(cfg Config, src ParamSource, press PressureSensor, act Actuator, display Sender, log logrus.FieldLogger) *Machine {
	return &Machine{
		cfg:     cfg.withDefaults(),
		params:  src,
		press:   press,
		act:     act,
		display: display,
		log:     log,
		warn:    rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

// Setup puts the machine in Off at ctime and asserts the relay off.
// The interlock starts counting at ctime.
func (m *Machine) Setup(ctime uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Off
	m.stateTime = ctime
	m.offTime = ctime
	m.activity = ctime
	m.ctime = ctime
	m.energized = false
	m.needAssert = true
	m.assert()
}

// Update advances the machine one tick.
func (m *Machine) Update(ctime uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ctime = ctime
	if m.needAssert {
		m.assert()
	}

	p := m.params.Snapshot()
	want := desiredDrive(p.RunState)

	active := m.press.Pressure() >= m.cfg.ActivityPressure
	if active {
		m.activity = ctime
	}

	switch m.state {
	case Off:
		if want != driveOff && m.interlockClear(ctime) {
			m.energize(ctime, On)
		}

	case On:
		switch {
		case want == driveOff:
			m.deenergize(ctime, Off)
		case want == driveWatch && m.stalled(ctime, p):
			m.cycles++
			m.deenergize(ctime, CycleOff)
		}

	case CycleOff:
		switch {
		case want == driveOff:
			m.enter(ctime, Off)
		case m.interlockClear(ctime):
			m.energize(ctime, CycleOn)
		}

	case CycleOn:
		switch {
		case want == driveOff:
			m.deenergize(ctime, Off)
		case want == driveSteady || active:
			m.enter(ctime, On)
		case m.stalled(ctime, p):
			m.cycles++
			m.deenergize(ctime, CycleOff)
		}
	}
}

// interlockClear reports whether the minimum off dwell has elapsed.
func (m *Machine) interlockClear(ctime uint32) bool {
	return ctime-m.offTime >= m.cfg.MinOffMillis
}

// stalled reports whether no pressure activity was seen for the stall window.
func (m *Machine) stalled(ctime uint32, p params.Parameters) bool {
	return ctime-m.activity >= m.stallWindow(p)
}

// stallWindow is max(StallMillis, two breath periods).
func (m *Machine) stallWindow(p params.Parameters) uint32 {
	window := m.cfg.StallMillis
	if p.RespRate <= 0 {
		return window
	}
	twoBreaths := 2 * (60000.0 / float64(p.RespRate))
	if twoBreaths > float64(window) && twoBreaths < float64(^uint32(0)) {
		window = uint32(twoBreaths)
	}
	return window
}

func (m *Machine) enter(ctime uint32, next State) {
	if next != m.state {
		m.log.WithFields(logrus.Fields{
			"from":   m.state,
			"to":     next,
			"cycles": m.cycles,
		}).Info("relay state change")
	}
	m.state = next
	m.stateTime = ctime
	m.activity = ctime
}

// energize commands the relay on and enters next. Nothing is energized
// while an earlier off command is still unconfirmed.
// A failed command may still have switched the coil, so the machine stays
// where it is and re-asserts off; the dwell then restarts at the confirmed off.
func (m *Machine) energize(ctime uint32, next State) {
	if m.needAssert {
		return
	}
	if err := m.act.Set(true); err != nil {
		m.needAssert = true
		m.logFailure(err, "relay energize failed")
		return
	}
	m.energized = true
	m.needAssert = false
	m.faulted = false
	m.enter(ctime, next)
}

// deenergize always leaves the energized states. A failed command is
// re-sent every tick until the relay confirms.
func (m *Machine) deenergize(ctime uint32, next State) {
	m.energized = false
	m.offTime = ctime
	m.enter(ctime, next)

	if err := m.act.Set(false); err != nil {
		m.needAssert = true
		m.logFailure(err, "relay de-energize failed")
		return
	}
	m.needAssert = false
	m.faulted = false
}

func (m *Machine) assert() {
	if err := m.act.Set(m.energized); err != nil {
		m.needAssert = true
		m.logFailure(err, "relay assert failed")
		return
	}
	if !m.energized {
		// The dwell runs from the confirmed off.
		m.offTime = m.ctime
	}
	m.needAssert = false
	m.faulted = false
}

func (m *Machine) logFailure(err error, msg string) {
	m.faulted = true
	if m.warn.Allow() {
		m.log.WithError(err).WithField("state", m.state).Warn(msg)
	}
}

// ---- reporting ----

// Snapshot returns the current machine view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:         m.state,
		CycleCount:    m.cycles,
		Energized:     m.energized,
		InterlockHeld: !m.state.Energized() && !m.interlockClear(m.ctime),
		Unconfirmed:   m.needAssert,
		Faulted:       m.faulted,
		Since:         m.stateTime,
		Ctime:         m.ctime,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CycleCount returns the number of stall cycles since boot.
func (m *Machine) CycleCount() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles
}

// StatusLen is the fixed length of the diagnostic line.
const StatusLen = 19

// String renders the diagnostic line: state, interlock flag, cycle count.
// Always StatusLen bytes.
func (m *Machine) String() string {
	return format(m.Snapshot())
}

func format(s Snapshot) string {
	lock := '-'
	if s.InterlockHeld {
		lock = 'L'
	}
	return fmt.Sprintf("%-8s %c %08d", s.State, lock, s.CycleCount%100000000)
}

// SendString sends the diagnostic line on the display channel.
func (m *Machine) SendString() error {
	if m.display == nil {
		return nil
	}
	s := m.Snapshot()
	if err := m.display.Send(message.NewString(message.TagDiagnostic, s.Ctime, format(s))); err != nil {
		return fmt.Errorf("relay: send status: %w", err)
	}
	return nil
}
