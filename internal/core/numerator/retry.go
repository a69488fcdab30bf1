package numerator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrRetryExhausted is returned by Retry when every attempt asked to try again.
var ErrRetryExhausted = errors.New("numerator: retry attempts exhausted")

// RetryPolicy bounds a Retry loop.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the minimum pause between attempts; a random jitter of up to
	// BaseDelay is added. Zero disables pauses.
	BaseDelay time.Duration
	// Every pauses only after every Nth failed attempt. 0 and 1 pause after each one.
	Every int
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type againError struct{ err error }

func (e *againError) Error() string { return e.err.Error() }
func (e *againError) Unwrap() error { return e.err }

// Again marks err as retryable. Any other non-nil error returned from a Retry
// attempt stops the loop immediately.
func Again(err error) error {
	return &againError{err: err}
}

// Retry calls fn until it returns nil, a non-retryable error or the policy runs out.
// attempt starts at 1. sleep may be nil, in which case Sleep is used.
func Retry(ctx context.Context, p RetryPolicy, sleep SleepFunc, fn func(ctx context.Context, attempt int) error) error {
	if sleep == nil {
		sleep = Sleep
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	every := p.Every
	if every < 1 {
		every = 1
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var again *againError
		if !errors.As(err, &again) {
			return err
		}
		last = again.err

		if attempt < maxAttempts && p.BaseDelay > 0 && attempt%every == 0 {
			if err := sleep(ctx, jitter(p.BaseDelay)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, maxAttempts, last)
}

func jitter(base time.Duration) time.Duration {
	return base + time.Duration(rand.Int64N(int64(base)))
}
