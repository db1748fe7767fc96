package stepform

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy controls how often a completion action is attempted.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// backoff returns the delay before retry number attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	d := float64(p.InitialBackoff)
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxBackoff > 0 && time.Duration(d) >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return time.Duration(d)
}

// RetryBuilder provides a fluent way to construct RetryPolicy values
// for use with RetryBuilder.Action.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = initial
	p.MaxBackoff = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.BackoffMultiplier = multiplier
	return RetryBuilder{policy: p}
}

// WithConstantBackoff configures a constant delay between attempts.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = delay
	p.MaxBackoff = 0
	p.BackoffMultiplier = 1.0
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

// Action wraps fn so that a failing attempt is retried according to the
// policy. The wrapped action returns the joined errors of every attempt when
// all of them fail, or ctx.Err() if the context ends while waiting.
func (r RetryBuilder) Action(fn CompletionAction) CompletionAction {
	p := r.policy
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return func(ctx context.Context, sub *Submission, at time.Time) error {
		var errs []error
		for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
			err := fn(ctx, sub, at)
			if err == nil {
				return nil
			}
			errs = append(errs, err)
			if attempt == p.MaxAttempts {
				break
			}

			if d := p.backoff(attempt); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
		return errors.Join(errs...)
	}
}
