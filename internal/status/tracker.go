// internal/status/tracker.go
package status

import "time"

// Tracker derives health and seconds-in-error from a stream of error codes.
// Not safe for concurrent use.
type Tracker struct {
	since   time.Time
	inError bool
}

// Observe folds the current error code into s at now.
// SecondsInError saturates at 65535 and resets on recovery.
func (t *Tracker) Observe(s Snapshot, code uint16, now time.Time) Snapshot {
	s.LastErrorCode = code

	if code == ErrNone {
		t.inError = false
		s.Health = HealthOK
		s.SecondsInError = 0
		return s
	}

	if !t.inError {
		t.inError = true
		t.since = now
	}
	s.Health = HealthError

	secs := now.Sub(t.since) / time.Second
	if secs > 65535 {
		secs = 65535
	}
	s.SecondsInError = uint16(secs)
	return s
}
