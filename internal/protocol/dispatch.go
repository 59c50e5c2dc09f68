// internal/protocol/dispatch.go
package protocol

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/message"
	"github.com/Tubbz-alt/pabv-control/internal/params"
)

// Parameter selectors. Protocol-locked.
const (
	SelRespRate   uint32 = 0x01
	SelInhTime    uint32 = 0x02
	SelPipMax     uint32 = 0x03
	SelPipOffset  uint32 = 0x04
	SelVolMax     uint32 = 0x05
	SelVolFactor  uint32 = 0x06
	SelVolInThold uint32 = 0x07
	SelPeepMin    uint32 = 0x08

	SelRunState uint32 = 0x10
	SelRunMode  uint32 = 0x11

	SelMuteAlarm uint32 = 0x20
)

// AlarmMuter is the breath-cycle side of the mute action.
type AlarmMuter interface {
	MuteAlarm()
}

// Store is the subset of params.Store the dispatcher mutates.
type Store interface {
	SetRespRate(v float32) error
	SetInhTime(v float32) error
	SetPipMax(v float32) error
	SetPipOffset(v float32) error
	SetVolMax(v float32) error
	SetVolFactor(v float32) error
	SetVolInThold(v float32) error
	SetPeepMin(v float32) error
	SetRunState(v params.RunState) error
	SetRunMode(v params.RunMode) error
}

var _ Store = (*params.Store)(nil)

type floatSetter func(s Store, v float32) error
type intSetter func(s Store, v uint32) error

var floatSetters = map[uint32]floatSetter{
	SelRespRate:   Store.SetRespRate,
	SelInhTime:    Store.SetInhTime,
	SelPipMax:     Store.SetPipMax,
	SelPipOffset:  Store.SetPipOffset,
	SelVolMax:     Store.SetVolMax,
	SelVolFactor:  Store.SetVolFactor,
	SelVolInThold: Store.SetVolInThold,
	SelPeepMin:    Store.SetPeepMin,
}

var intSetters = map[uint32]intSetter{
	SelRunState: func(s Store, v uint32) error { return s.SetRunState(params.RunState(v)) },
	SelRunMode:  func(s Store, v uint32) error { return s.SetRunMode(params.RunMode(v)) },
}

// Outcome classifies what Apply did with a message.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"
	OutcomeFloat    Outcome = "float"
	OutcomeInteger  Outcome = "integer"
	OutcomeUnknown  Outcome = "unknown-selector"
	OutcomeMute     Outcome = "mute"
	OutcomeStoreErr Outcome = "store-error"
)

// Dispatcher interprets inbound messages into parameter mutations or actions.
type Dispatcher struct {
	store Store
	alarm AlarmMuter
	log   logrus.FieldLogger
}

func NewDispatcher(store Store, alarm AlarmMuter, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{store: store, alarm: alarm, log: log}
}

// Apply handles one message and reports whether a rebroadcast is due.
//
// A well-formed float or integer update reports changed even when its selector
// is unknown or the store failed to persist. A mute action never reports changed.
func (d *Dispatcher) Apply(m message.Message) bool {
	changed, _ := d.apply(m)
	return changed
}

func (d *Dispatcher) apply(m message.Message) (bool, Outcome) {
	if !m.OK() || len(m.Ints) == 0 {
		return false, OutcomeIgnored
	}
	sel := m.Ints[0]

	switch {
	case m.Tag == message.TagParamFloat && len(m.Floats) == 1:
		v := m.Floats[0]
		log := d.log.WithFields(logrus.Fields{
			"param": fmt.Sprintf("0x%02x", sel),
			"value": v,
		})

		set, ok := floatSetters[sel]
		if !ok {
			log.Debug("unknown float parameter")
			return true, OutcomeUnknown
		}
		log.Info("float parameter update")
		if err := set(d.store, v); err != nil {
			return true, OutcomeStoreErr
		}
		return true, OutcomeFloat

	case m.Tag == message.TagParamInteger && len(m.Ints) == 2:
		v := m.Ints[1]
		log := d.log.WithFields(logrus.Fields{
			"param": fmt.Sprintf("0x%02x", sel),
			"value": v,
		})

		set, ok := intSetters[sel]
		if !ok {
			log.Debug("unknown integer parameter")
			return true, OutcomeUnknown
		}
		log.Info("integer parameter update")
		if err := set(d.store, v); err != nil {
			return true, OutcomeStoreErr
		}
		return true, OutcomeInteger

	case m.Tag == message.TagParamSet && len(m.Floats) == 0 && len(m.Ints) == 1:
		if sel == SelMuteAlarm {
			if d.alarm != nil {
				d.alarm.MuteAlarm()
			}
			d.log.Info("clear alarm")
			return false, OutcomeMute
		}
		return false, OutcomeIgnored
	}

	return false, OutcomeIgnored
}

// ApplyWithOutcome is Apply plus the classification, for metrics.
func (d *Dispatcher) ApplyWithOutcome(m message.Message) (bool, Outcome) {
	return d.apply(m)
}
