package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HTTPStatusError reports a non-2xx response from an upstream API. The
// status code decides whether a call is retried.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Options controls the bounded retry loop.
type Options struct {
	Attempts       int
	InitialDelay   time.Duration
	ExpBase        int
	RetryableCodes []int
}

// DefaultOptions returns the retry policy used for Gemini calls.
func DefaultOptions() Options {
	return Options{
		Attempts:       5,
		InitialDelay:   1 * time.Second,
		ExpBase:        7,
		RetryableCodes: []int{429, 500, 503, 504},
	}
}

// Do runs fn up to opts.Attempts times. Only an HTTPStatusError carrying a
// listed status code is retried; any other error returns immediately. The
// wait before retry n is InitialDelay*ExpBase^(n-1), and waiting honors ctx
// cancellation. After exhaustion the last error is returned wrapped with the
// attempt count.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	delay := opts.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= time.Duration(opts.ExpBase)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr, opts.RetryableCodes) {
			return lastErr
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", opts.Attempts, lastErr)
}

// isRetryable reports whether err is an HTTPStatusError with a listed code
func isRetryable(err error, codes []int) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	for _, code := range codes {
		if code == statusErr.StatusCode {
			return true
		}
	}
	return false
}
