// internal/runner/clock.go
package runner

import "time"

// Clock returns the tick time in milliseconds. It wraps after ~49.7 days;
// consumers compare with unsigned subtraction.
type Clock func() uint32

// MonotonicClock counts milliseconds from its creation on the monotonic clock.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}
