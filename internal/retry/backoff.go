package retry

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// ExponentialBackoff grows the delay by a constant factor per retry, caps it,
// then spreads it by a random jitter. The growth schedule is
// backoff.ExponentialBackOff replayed from a fresh start, so one strategy can
// serve concurrent executions.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// maxAttempts is the number of retries (-1 = unlimited, 0 = none).
	maxAttempts int

	// jitter of 0.1 spreads each delay by +/- 10%.
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

// WithMaxDelay caps every delay, including server-requested ones.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the jitter factor (0.0-1.0). Zero makes delays exact.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source, which must return values in [0, 1).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff returns a strategy allowing maxAttempts retries,
// starting at sfmeta.DefaultRetryInitialDelay and capped at
// sfmeta.DefaultRetryMaxDelay.
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200*time.Millisecond),
//	    retry.WithJitter(0.2),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: sfmeta.DefaultRetryInitialDelay,
		maxDelay:     sfmeta.DefaultRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns the wait before retry number attempt (zero-based).
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return b.Delay(attempt, 0)
}

// Delay is NextDelay honoring a server hint such as Retry-After. A positive
// hint replaces the computed delay and is still subject to the cap. Hinted
// delays are not jittered.
func (b *ExponentialBackoff) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return min(hint, b.maxDelay)
	}

	d := float64(b.interval(attempt))
	if b.jitter > 0 {
		// Map [0,1) to [-1,1) and scale.
		d *= 1 + b.jitter*(b.jitterFunc()*2-1)
	}
	return time.Duration(d)
}

// interval is the un-jittered delay before retry number attempt.
func (b *ExponentialBackoff) interval(attempt int) time.Duration {
	schedule := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(b.initialDelay),
		backoff.WithMaxInterval(b.maxDelay),
		backoff.WithMultiplier(b.multiplier),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
	var d time.Duration
	for range attempt + 1 {
		d = schedule.NextBackOff()
		if d == b.maxDelay {
			break
		}
	}
	return d
}

// MaxAttempts returns the number of retries allowed.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}
