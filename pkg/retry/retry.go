// pkg/retry/retry.go - functions for retrying actions with exponential backoff.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fmezou/lappupdate/pkg/logging"
)

// Config defines the configuration for retry attempts.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// nonRetryableError wraps an error that must not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks an error so that Do gives up immediately instead of
// retrying.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err carries the non-retryable marker.
func IsNonRetryable(err error) bool {
	var nre *nonRetryableError
	return errors.As(err, &nre)
}

// Do retries the action with exponential backoff until it succeeds, the
// attempts are exhausted, the error is non-retryable, or the context is
// canceled.
func Do(ctx context.Context, cfg Config, action func() error) error {
	interval := cfg.InitialInterval

	// A zero or negative MaxRetries still runs the action once.
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = action()
		if err == nil {
			return nil
		}

		if IsNonRetryable(err) {
			logging.Warn("Non-retryable error encountered",
				"attempt", attempt, "error", err)
			return err
		}

		if attempt < attempts {
			logging.Warn("Attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", attempts,
				"retry_delay", interval.String(),
				"error", err)
		} else {
			logging.Warn("Attempt failed, no more retries",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err)
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * cfg.Multiplier)
	}

	return fmt.Errorf("action failed after %d attempts: %w", attempts, err)
}
