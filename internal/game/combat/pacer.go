package combat

import (
	"context"
	"time"
)

// Pacer inserts the cosmetic pause between beats. It never gates ordering.
type Pacer interface {
	Pace(ctx context.Context) error
}

// DelayPacer sleeps for Delay, returning early with ctx.Err() when ctx is done.
// A zero Delay disables pacing.
type DelayPacer struct {
	Delay time.Duration
}

// Pace implements Pacer.
func (p DelayPacer) Pace(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
