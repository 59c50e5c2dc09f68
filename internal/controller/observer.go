// internal/controller/observer.go
package controller

import (
	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/protocol"
)

// Reason says why a broadcast went out.
type Reason string

const (
	ReasonChange   Reason = "change"
	ReasonInterval Reason = "interval"
)

// Change describes one tick in which the configuration changed.
type Change struct {
	Serial  uint32
	Sources []string
	Ctime   uint32
	Params  params.Parameters
}

// Observer receives controller events. Called on the tick goroutine: must not block.
type Observer interface {
	MessageHandled(source string, outcome protocol.Outcome)
	Changed(c Change)
	Broadcasted(serial uint32, reason Reason)
	SendFailed(source string, err error)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) MessageHandled(string, protocol.Outcome) {}
func (NopObserver) Changed(Change)                          {}
func (NopObserver) Broadcasted(uint32, Reason)              {}
func (NopObserver) SendFailed(string, error)                {}

// Observers fans events out in order.
type Observers []Observer

func (obs Observers) MessageHandled(source string, outcome protocol.Outcome) {
	for _, o := range obs {
		o.MessageHandled(source, outcome)
	}
}

func (obs Observers) Changed(c Change) {
	for _, o := range obs {
		o.Changed(c)
	}
}

func (obs Observers) Broadcasted(serial uint32, reason Reason) {
	for _, o := range obs {
		o.Broadcasted(serial, reason)
	}
}

func (obs Observers) SendFailed(source string, err error) {
	for _, o := range obs {
		o.SendFailed(source, err)
	}
}
