package tasks

import (
	"context"
	"math/rand"
	"time"
)

// backoff produces exponentially growing sleep intervals with jitter for
// retry loops. Not safe for concurrent use; each retry loop owns one.
type backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

// next advances and returns the next interval.
func (b *backoff) next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	// jitter ~ +/-20%
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}

// sleep blocks for the next interval or until the context is done.
func (b *backoff) sleep(ctx context.Context) error {
	return sleepCtx(ctx, b.next())
}

func (b *backoff) reset() { b.cur = 0 }

// sleepCtx blocks for d, returning early with the context's error if it is
// cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
