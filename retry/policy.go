package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/actionmesh/ratelimit"
)

// Policy describes bounded exponential backoff. The zero value retries never;
// use DefaultPolicy for sensible defaults. Policies are plain values passed
// into whichever component performs the invocation, keeping the
// backoff/error-mapping contract independently testable.
type Policy struct {
	// MaxRetries bounds the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration

	// MaxInterval caps the growth of the backoff delay.
	MaxInterval time.Duration

	// Multiplier scales the delay between attempts.
	Multiplier float64

	// MaxElapsedTime bounds the total time spent retrying. Zero means no
	// overall bound beyond MaxRetries.
	MaxElapsedTime time.Duration
}

// DefaultPolicy returns the policy used by the engine when none is supplied.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     15 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  2 * time.Minute,
	}
}

// Execute runs op, retrying transient rate-limit failures with exponential
// backoff. Error mapping:
//
//   - ratelimit.RequestTooLargeError: fatal, returned immediately.
//   - ratelimit.BackoffError: transient. Before the next attempt the policy
//     waits on the limiter for the exact capacity the failed admission
//     needed, so recovery happens as soon as expired reservations free it.
//   - anything else: terminal invocation failure, returned immediately.
//
// Exhausting the retry budget returns the last transient error.
func (p Policy) Execute(ctx context.Context, limiter *ratelimit.RateLimiter, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.MaxElapsedTime = p.MaxElapsedTime
	b.Reset()

	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}

		var tooLarge *ratelimit.RequestTooLargeError
		if errors.As(err, &tooLarge) {
			return backoff.Permanent(err)
		}

		var transient *ratelimit.BackoffError
		if errors.As(err, &transient) {
			if limiter != nil {
				if waitErr := limiter.WaitForCapacity(ctx, transient.RequestCost, transient.TokenCost); waitErr != nil {
					return backoff.Permanent(waitErr)
				}
			}
			return err
		}

		return backoff.Permanent(err)
	}

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx))
}
