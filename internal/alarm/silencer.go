// internal/alarm/silencer.go
package alarm

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMute is how long one mute request silences the audible alarm.
const DefaultMute = 2 * time.Minute

// Silencer latches alarm-mute requests from either message channel.
// A repeated request restarts the window.
type Silencer struct {
	dur time.Duration
	log logrus.FieldLogger
	now func() time.Time

	mu    sync.Mutex
	until time.Time
	count uint64
}

func NewSilencer(dur time.Duration, log logrus.FieldLogger) *Silencer {
	if dur <= 0 {
		dur = DefaultMute
	}
	return &Silencer{dur: dur, log: log, now: time.Now}
}

// MuteAlarm silences the alarm for the configured window.
func (s *Silencer) MuteAlarm() {
	s.mu.Lock()
	s.until = s.now().Add(s.dur)
	s.count++
	until := s.until
	s.mu.Unlock()

	s.log.WithField("until", until.Format(time.RFC3339)).Info("alarm muted")
}

// Muted reports whether a mute window is open.
func (s *Silencer) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.until)
}

// Remaining is the time left in the current window, zero when not muted.
func (s *Silencer) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.until.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// Count is the number of mute requests accepted since start.
func (s *Silencer) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
