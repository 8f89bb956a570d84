package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Func defines the function signature for a retryable operation.
type Func func(ctx context.Context) error

// LoggerFunc is called after every failed attempt that will be retried.
type LoggerFunc func(attempt, attempts int, err error, wait time.Duration)

// StopRetryError is a special error type that indicates retry should stop
type StopRetryError struct {
	err error
}

func (e *StopRetryError) Error() string {
	return e.err.Error()
}

func (e *StopRetryError) Unwrap() error {
	return e.err
}

// StopRetry wraps an error to indicate that retry should stop
func StopRetry(err error) error {
	if err == nil {
		return nil
	}
	return &StopRetryError{err: err}
}

// IsStopRetry checks if an error is a StopRetryError
func IsStopRetry(err error) bool {
	var stopRetryError *StopRetryError
	return errors.As(err, &stopRetryError)
}

// Execute performs an operation with a retry mechanism. The error of the
// last attempt is returned; a StopRetry error ends the loop and is unwrapped.
func Execute(ctx context.Context, cfg *Config, op Func, log LoggerFunc) error {
	// If no retry configuration is provided, just execute the operation
	if cfg == nil || !cfg.Enable {
		return op(ctx)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}

	wait := cfg.Interval
	var lastErr error
	for i := 1; i <= cfg.Attempts; i++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		var stop *StopRetryError
		if errors.As(lastErr, &stop) {
			return stop.err
		}
		if i == cfg.Attempts {
			break
		}
		if log != nil {
			log(i, cfg.Attempts, lastErr, wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return lastErr
}
