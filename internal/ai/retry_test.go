package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := stderrors.New("bad request")
	calls := 0

	_, err := withRetry(context.Background(), errors.Nop(), "op", 3,
		func(error) bool { return false },
		func() (int, error) {
			calls++
			return 0, permanent
		})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := withRetry(ctx, errors.Nop(), "op", 3,
		func(error) bool { return true },
		func() (int, error) {
			calls++
			cancel()
			return 0, stderrors.New("transient")
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffIsCapped(t *testing.T) {
	assert.GreaterOrEqual(t, backoff(1), time.Second)
	assert.Less(t, backoff(1), 1200*time.Millisecond)
	assert.Equal(t, maxBackoff, backoff(10))
}

func TestProviderErrorKeepsExistingProviderError(t *testing.T) {
	original := errors.NewProviderError(errors.ErrCodeProviderAuth, "denied", nil)
	got := providerError("openrouter", original, nil)
	require.Same(t, original, got)

	wrapped := providerError("gemini", context.DeadlineExceeded, nil)
	assert.Equal(t, errors.ErrCodeProviderTimeout, wrapped.Code)
	assert.Equal(t, "gemini", wrapped.Context["provider"])
}
