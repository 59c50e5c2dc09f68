// internal/controller/controller.go
package controller

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/channel"
	"github.com/Tubbz-alt/pabv-control/internal/identity"
	"github.com/Tubbz-alt/pabv-control/internal/message"
	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/protocol"
)

// DefaultConfigMillis is the rebroadcast period when none is configured.
const DefaultConfigMillis uint32 = 1000

// Channel names used in logs, metrics and history.
const (
	SourcePrimary = "primary"
	SourceDisplay = "display"
)

// Store is what the controller needs from the parameter store.
type Store interface {
	Load() params.Parameters
	Snapshot() params.Parameters
}

// Dispatcher applies one inbound message.
type Dispatcher interface {
	ApplyWithOutcome(m message.Message) (bool, protocol.Outcome)
}

// Config holds the controller timing constants.
type Config struct {
	ConfigMillis uint32
}

// Controller ties the parameter store and protocol together per tick.
//
// Update is called from a single tick goroutine. SerialNumber and
// LastBroadcast are safe to call from anywhere.
type Controller struct {
	store    Store
	dispatch Dispatcher
	primary  channel.Channel
	display  channel.Channel

	version string
	id      identity.ID
	period  uint32

	log logrus.FieldLogger
	obs Observer

	serial        atomic.Uint32
	lastBroadcast atomic.Uint32
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver adds an observer. Multiple observers are called in order.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if c.obs == nil {
			c.obs = o
			return
		}
		c.obs = Observers{c.obs, o}
	}
}

func New(
	store Store,
	dispatch Dispatcher,
	primary, display channel.Channel,
	version string,
	id identity.ID,
	cfg Config,
	log logrus.FieldLogger,
	opts ...Option,
) *Controller {
	period := cfg.ConfigMillis
	if period == 0 {
		period = DefaultConfigMillis
	}
	if primary == nil {
		primary = channel.Null{}
	}
	if display == nil {
		display = channel.Null{}
	}

	c := &Controller{
		store:    store,
		dispatch: dispatch,
		primary:  primary,
		display:  display,
		version:  version,
		id:       id,
		period:   period,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.obs == nil {
		c.obs = NopObserver{}
	}

	c.serial.Store(1)
	return c
}

// Setup loads the persisted parameters and starts the broadcast interval at ctime.
func (c *Controller) Setup(ctime uint32) params.Parameters {
	p := c.store.Load()
	c.lastBroadcast.Store(ctime)
	return p
}

// Update runs one tick.
//
// Primary is read before display and both are read every tick. The serial
// number increments at most once per tick, before the broadcast-due check.
func (c *Controller) Update(ctime uint32) {
	var sources []string

	if c.poll(SourcePrimary, c.primary) {
		sources = append(sources, SourcePrimary)
	}
	if c.poll(SourceDisplay, c.display) {
		sources = append(sources, SourceDisplay)
	}

	changed := len(sources) > 0
	if changed {
		serial := c.serial.Add(1)
		c.obs.Changed(Change{
			Serial:  serial,
			Sources: sources,
			Ctime:   ctime,
			Params:  c.store.Snapshot(),
		})
	}

	reason := ReasonChange
	if !changed {
		if ctime-c.lastBroadcast.Load() <= c.period {
			return
		}
		reason = ReasonInterval
	}

	c.broadcast(ctime, reason)
}

func (c *Controller) poll(source string, ch channel.Channel) bool {
	m, ok := ch.Read()
	if !ok {
		return false
	}

	changed, outcome := c.dispatch.ApplyWithOutcome(m)
	c.obs.MessageHandled(source, outcome)
	if outcome == protocol.OutcomeIgnored {
		c.log.WithFields(logrus.Fields{
			"source": source,
			"tag":    m.Tag,
			"status": m.Status,
		}).Debug("message ignored")
	}
	return changed
}

func (c *Controller) broadcast(ctime uint32, reason Reason) {
	serial := c.serial.Load()
	msgs := protocol.Broadcast(c.store.Snapshot(), serial, c.version, c.id, ctime)

	for _, m := range msgs {
		if err := c.primary.Send(m); err != nil {
			c.obs.SendFailed(SourcePrimary, err)
			c.log.WithError(err).WithField("tag", m.Tag).Warn("broadcast send failed")
		}
	}

	c.lastBroadcast.Store(ctime)
	c.obs.Broadcasted(serial, reason)
}

// SerialNumber returns the configuration serial number.
func (c *Controller) SerialNumber() uint32 { return c.serial.Load() }

// LastBroadcast returns the tick time of the last broadcast.
func (c *Controller) LastBroadcast() uint32 { return c.lastBroadcast.Load() }
