package connectivity

import (
	"context"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Check pings once and records the outcome on the monitor.
func Check(ctx context.Context, m *Monitor, p Pinger, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.Ping(ctx)
	if err != nil {
		m.log.Debug("ping failed", "err", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Probe checks immediately and then on every interval until ctx is done.
func Probe(ctx context.Context, m *Monitor, p Pinger, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	Check(ctx, m, p, timeout)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Check(ctx, m, p, timeout)
		}
	}
}
