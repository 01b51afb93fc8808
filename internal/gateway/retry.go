package gateway

import (
	"context"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 200 * time.Millisecond
)

// WithRetry runs fn with a bounded per-attempt timeout and retries transient
// failures with exponential backoff. fn must be idempotent: callers pass the
// same idempotency key on every attempt. Non-transient errors are returned
// immediately.
func WithRetry(ctx context.Context, callTimeout time.Duration, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var err error
	backoff := defaultBaseBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil || !IsRetryable(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return &TransientError{Cause: ctx.Err()}
		}
		backoff *= 2
	}

	return err
}
