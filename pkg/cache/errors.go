package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for cache and boundary operations.
var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks transport failures: timeouts, resets, 5xx responses.
	ErrNetwork = errors.New("network error")
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // total calls, including the first
	Delay    time.Duration // wait before the second call
	Max      time.Duration // cap on a single wait; zero means no cap
}

// DefaultBackoff makes three attempts, waiting 1s then 2s.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, Max: 8 * time.Second}

// RetryWithBackoff retries fn with DefaultBackoff.
// Only errors wrapped with Retryable will trigger retries.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. The last error is returned.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
				if b.Max > 0 && delay > b.Max {
					delay = b.Max
				}
			}
		}
	}
	return lastErr
}
