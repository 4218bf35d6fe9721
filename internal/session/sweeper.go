package session

import (
	"context"
	"time"
)

// SweepFunc receives the result of one sweep.
type SweepFunc func(evicted, remaining int)

// RunSweeper calls Sweep every interval until ctx is cancelled.
// It returns immediately when interval or the TTL is not positive.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration, report SweepFunc) error {
	if interval <= 0 || r.ttl <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			evicted := r.Sweep()
			if report != nil {
				report(evicted, r.Len())
			}
		}
	}
}
