// internal/history/async.go
package history

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Tubbz-alt/pabv-control/internal/controller"
)

// DefaultQueue is the entry backlog held while the database is slow.
const DefaultQueue = 64

// Async records configuration changes off the tick goroutine.
// Changed never blocks: entries beyond the queue are dropped and counted.
type Async struct {
	controller.NopObserver

	rec      Recorder
	deviceID string
	queue    chan Entry
	timeout  time.Duration
	log      logrus.FieldLogger
	warn     *rate.Limiter
	now      func() time.Time

	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewAsync(rec Recorder, deviceID string, queue int, log logrus.FieldLogger) *Async {
	if queue <= 0 {
		queue = DefaultQueue
	}
	return &Async{
		rec:      rec,
		deviceID: deviceID,
		queue:    make(chan Entry, queue),
		timeout:  2 * time.Second,
		log:      log,
		warn:     rate.NewLimiter(rate.Every(10*time.Second), 1),
		now:      time.Now,
	}
}

// Changed queues the change. Implements controller.Observer.
func (a *Async) Changed(c controller.Change) {
	e := Entry{
		At:       a.now(),
		DeviceID: a.deviceID,
		Serial:   c.Serial,
		Sources:  append([]string(nil), c.Sources...),
		Params:   c.Params,
	}
	select {
	case a.queue <- e:
	default:
		a.dropped.Add(1)
	}
}

// Run writes queued entries until ctx is done.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-a.queue:
			a.write(ctx, e)
		}
	}
}

func (a *Async) write(ctx context.Context, e Entry) {
	wctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.rec.Record(wctx, e); err != nil {
		a.failed.Add(1)
		if a.warn.Allow() {
			a.log.WithError(err).WithFields(logrus.Fields{
				"serial":  e.Serial,
				"dropped": a.dropped.Load(),
				"failed":  a.failed.Load(),
			}).Warn("history write failed")
		}
	}
}

// Dropped is the number of entries lost to a full queue.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Failed is the number of entries the recorder rejected.
func (a *Async) Failed() uint64 { return a.failed.Load() }
