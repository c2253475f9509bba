package worker

import (
	"context"
	"errors"
	"time"
)

const maxAttempts = 3

// backoffUnit is the first retry delay; it doubles on every attempt.
var backoffUnit = time.Second

// RetryError is returned by withRetry once it gives up. Its message is the
// last attempt's error.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string { return e.Err.Error() }

func (e *RetryError) Unwrap() error { return e.Err }

// attemptsOf reports how many times a failed job ran. Errors that did not
// come out of withRetry (a payload that does not decode) ran once.
func attemptsOf(err error) int {
	var re *RetryError
	if errors.As(err, &re) {
		return re.Attempts
	}
	return 1
}

// withRetry calls fn up to attempts times, waiting 1s, 2s, 4s… between tries.
// It returns nil on the first success, otherwise a *RetryError.
func withRetry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &RetryError{Attempts: i, Err: ctx.Err()}
			case <-time.After(backoffUnit << uint(i-1)):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return &RetryError{Attempts: attempts, Err: lastErr}
}
