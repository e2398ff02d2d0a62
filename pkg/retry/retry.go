// Package retry provides bounded exponential backoff for flaky operations.
//
// It is used at adapter initialization and stream reconnect time, where a
// transient failure (model still loading, capture daemon restarting) should
// not take the pipeline down. It is deliberately not used on the per-frame
// path, which has a hard real-time budget.
//
// Example usage:
//
//	detector, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) (*detection.YOLODetector, error) {
//	    return detection.NewYOLO(cfg)
//	})
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrMaxAttempts is returned when all attempts are exhausted and the
// operation never produced an acceptable result.
var ErrMaxAttempts = errors.New("retry: max attempts exhausted")

// Policy controls backoff behavior. The zero value is not valid; start from
// DefaultPolicy and adjust.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// MaxRetries = 3 means up to 4 attempts total.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier grows the delay each attempt (delay = initial * mult^attempt).
	Multiplier float64

	// Jitter adds ±10% randomness to each delay to avoid thundering herds.
	Jitter bool

	// Timeout, if positive, bounds the whole operation including waits.
	Timeout time.Duration

	// ShouldRetry decides whether an error is worth retrying.
	// If nil, every error is retried.
	ShouldRetry func(error) bool

	// sleep is injectable for tests. Defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns sensible defaults for adapter initialization.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// WithSleep returns a copy of the policy with a custom sleep function.
// Tests use this to record delays without waiting.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Delay returns the backoff delay for the given zero-based attempt,
// clamped to [InitialDelay, MaxDelay]. Jitter is not applied here.
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	delay := time.Duration(d)
	if delay < p.InitialDelay {
		delay = p.InitialDelay
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do runs op until it succeeds, the retry budget is exhausted, or the
// context is done. The final error is the operation's last error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	return DoWithCondition(ctx, p, op, nil)
}

// DoWithCondition runs op until it succeeds and accept returns true for the
// result. A nil accept treats any success as final. This covers the "model
// loaded but warm-up prediction still unstable" pattern, where the call
// succeeds but the result is not yet usable.
func DoWithCondition[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), accept func(T) bool) (T, error) {
	var zero T

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	sleep := p.sleep
	if sleep == nil {
		sleep = waitCtx
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt - 1)
			if p.Jitter {
				delay = addJitter(delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			if accept == nil || accept(result) {
				return result, nil
			}
			lastErr = ErrMaxAttempts
			continue
		}

		lastErr = err
		if p.ShouldRetry != nil && !p.ShouldRetry(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// addJitter applies ±10% randomness to a delay.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := float64(d) * 0.1
	offset := (rand.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + offset)
}

// waitCtx sleeps for d or until the context is done.
func waitCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
