// Package retry provides a small fixed-backoff retry policy used by the
// external API clients. Each collaborator carries its own policy so the
// graph builder stays free of retry logic.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the fixed delay between attempts.
	Backoff time.Duration

	// Retryable reports whether the error is worth another attempt.
	// A nil Retryable retries on any error.
	Retryable func(error) bool
}

// Do runs fn, retrying per the policy. It returns the last error if all
// attempts fail, or nil on the first success. The backoff sleep is
// interrupted by context cancellation.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
