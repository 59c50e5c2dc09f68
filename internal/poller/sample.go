// internal/poller/sample.go
package poller

import "time"

// Sample is the outcome of one register read.
type Sample struct {
	Name string
	At   time.Time

	Registers []uint16 // nil when Err is set
	Err       error
}

func (s Sample) OK() bool { return s.Err == nil && len(s.Registers) > 0 }
