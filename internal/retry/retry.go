package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy retries a function with exponential backoff
type Policy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewPolicy creates a new retry policy
func NewPolicy(maxAttempts int, initialDelay time.Duration) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Policy{
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     30 * time.Second, // Cap at 30 seconds
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Execute runs fn until it succeeds, returns a permanent error, the attempts run
// out, or ctx is done
func (p *Policy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := p.initialDelay

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		// Don't sleep after last attempt
		if attempt < p.maxAttempts {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
			case <-timer.C:
			}

			delay = time.Duration(float64(delay) * 1.5)
			if delay > p.maxDelay {
				delay = p.maxDelay
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.maxAttempts, lastErr)
}
