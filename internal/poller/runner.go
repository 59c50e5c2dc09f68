// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run samples immediately, then every Interval, until ctx is done.
// sink runs on the polling goroutine; a slow sink delays the next read.
func (p *Poller) Run(ctx context.Context, sink func(Sample)) {
	if ctx.Err() != nil {
		return
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		sink(p.Sample())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
