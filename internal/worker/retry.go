package worker

import (
	"context"
	"fmt"
	"time"
)

// RetryError is returned once every attempt has failed.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// withRetry calls fn up to maxAttempts times. The first attempt is immediate,
// then the wait doubles from base: base, 2·base, 4·base …
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &RetryError{Attempts: i, Err: ctx.Err()}
			case <-time.After(base << uint(i-1)):
			}
		}
		if lastErr = fn(i); lastErr == nil {
			return nil
		}
	}
	return &RetryError{Attempts: maxAttempts, Err: lastErr}
}
