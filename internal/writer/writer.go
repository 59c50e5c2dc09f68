// internal/writer/writer.go
package writer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/status"
)

// Mirror periodically delivers the device status to a StatusWriter.
// One goroutine. No overlap. No retries beyond the next tick.
type Mirror struct {
	sw       StatusWriter
	source   func() status.Snapshot
	interval time.Duration
	log      logrus.FieldLogger

	failing bool
}

func NewMirror(sw StatusWriter, source func() status.Snapshot, interval time.Duration, log logrus.FieldLogger) *Mirror {
	return &Mirror{
		sw:       sw,
		source:   source,
		interval: interval,
		log:      log,
	}
}

// WriteOnce delivers one snapshot. Failures are logged on transition only.
func (m *Mirror) WriteOnce() error {
	err := m.sw.WriteStatus(m.source())
	switch {
	case err != nil && !m.failing:
		m.failing = true
		m.log.WithError(err).Warn("status mirror write failed")
	case err == nil && m.failing:
		m.failing = false
		m.log.Info("status mirror recovered")
	}
	return err
}

// Run starts the ticker loop until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.WriteOnce()
		}
	}
}
