package services

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is a small reusable bounded-backoff policy shared by the
// outbound clients. Delay doubles per attempt with up to 25% jitter.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// Do runs fn up to MaxAttempts times, backing off between attempts.
// Retries stop early when retryable reports the error as permanent or the
// context is cancelled. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts || !retryable(lastErr) {
			return lastErr
		}

		wait := delay
		if wait > 0 {
			wait += time.Duration(rand.Int63n(int64(wait)/4 + 1))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
	}

	return lastErr
}
