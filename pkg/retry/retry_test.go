package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmezou/lappupdate/pkg/retry"
)

var fastConfig = retry.Config{
	MaxRetries:      3,
	InitialInterval: time.Millisecond,
	Multiplier:      2.0,
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	failure := errors.New("still down")
	err := retry.Do(context.Background(), fastConfig, func() error {
		calls++
		return failure
	})
	require.Error(t, err)
	assert.Equal(t, fastConfig.MaxRetries, calls)
	assert.ErrorIs(t, err, failure)
}

// TestDoZeroMaxRetriesRunsOnce checks that an unconfigured attempt count
// still runs the action once and wraps its real error, instead of returning
// a failure that wraps nothing.
func TestDoZeroMaxRetriesRunsOnce(t *testing.T) {
	for _, maxRetries := range []int{0, -1} {
		calls := 0
		failure := errors.New("still down")
		err := retry.Do(context.Background(), retry.Config{MaxRetries: maxRetries},
			func() error {
				calls++
				return failure
			})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, failure)
		assert.NotContains(t, err.Error(), "%!w")
	}
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	failure := errors.New("forbidden")
	err := retry.Do(context.Background(), fastConfig, func() error {
		calls++
		return retry.NonRetryable(failure)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, failure)
}

func TestDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := retry.Config{MaxRetries: 5, InitialInterval: time.Minute, Multiplier: 2.0}
	errCh := make(chan error, 1)
	go func() {
		errCh <- retry.Do(ctx, cfg, func() error {
			return errors.New("transient")
		})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestNonRetryable(t *testing.T) {
	assert.Nil(t, retry.NonRetryable(nil))

	err := retry.NonRetryable(errors.New("fatal"))
	assert.True(t, retry.IsNonRetryable(err))
	assert.False(t, retry.IsNonRetryable(errors.New("fatal")))

	// The marker survives wrapping.
	wrapped := errors.Join(errors.New("context"), err)
	assert.True(t, retry.IsNonRetryable(wrapped))
}
