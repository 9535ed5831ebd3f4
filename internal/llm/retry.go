package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Clock abstracts time so the backoff policy can be tested without
// sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Backoff is the wait policy between failed attempts:
// BaseDelay * 2^attempt plus a random jitter in [0, MaxJitter).
type Backoff struct {
	BaseDelay time.Duration
	MaxJitter time.Duration

	// Jitter returns a value in [0, 1). Defaults to math/rand.
	Jitter func() float64

	Clock Clock
}

// NewBackoff builds the policy described by cfg on the system clock.
func NewBackoff(cfg RetryConfig) *Backoff {
	return &Backoff{
		BaseDelay: cfg.BaseDelay,
		MaxJitter: cfg.MaxJitter,
		Jitter:    rand.Float64,
		Clock:     SystemClock{},
	}
}

// Delay computes the wait after the given zero-based attempt failed with
// err. A rate limit's RetryAfter wins when it is longer.
func (b *Backoff) Delay(attempt int, err error) time.Duration {
	wait := float64(b.BaseDelay) * math.Pow(2, float64(attempt))

	jitter := b.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	wait += float64(b.MaxJitter) * jitter()

	d := time.Duration(wait)
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > d {
		d = rl.RetryAfter
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Wait blocks for Delay(attempt, err) or until ctx is done.
func (b *Backoff) Wait(ctx context.Context, attempt int, err error) error {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(b.Delay(attempt, err)):
		return nil
	}
}
