package main

import (
	"context"
	"math/rand"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// backoff doubles the wait after each failed batch, capped at max, and
// resets to base after a success. Every wait gets up to jitterWindow added
// so replicas do not poll in lockstep.
type backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	rng     *rand.Rand
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{
		base:    base,
		max:     max,
		current: base,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// failure returns the next wait after a failed batch.
func (b *backoff) failure() time.Duration {
	b.current = min(max(b.current, b.base)*2, b.max)
	return b.jitter(b.current)
}

// idle resets the backoff and returns the wait before the next poll.
func (b *backoff) idle() time.Duration {
	b.current = b.base
	return b.jitter(b.base)
}

func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(b.rng.Int63n(int64(jitterWindow)))
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
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
