package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/pipeline"
)

func fastPolicy() BackoffPolicy {
	return BackoffPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetry_SucceedsImmediately_NoRetries(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zerolog.Nop(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_TransientFailure_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zerolog.Nop(), fastPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return pipeline.Wrap("backend", pipeline.KindTransient, errors.New("timeout"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_NonTransientFailure_ReturnsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zerolog.Nop(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return pipeline.Wrap("backend", pipeline.KindValidationFailed, errors.New("bad gate"))
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttemptBudget_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), zerolog.Nop(), fastPolicy(), func(ctx context.Context) error {
		calls++
		return pipeline.Wrap("backend", pipeline.KindTransient, errors.New("still down"))
	})
	assert.Error(t, err)
	assert.Equal(t, fastPolicy().MaxAttempts, calls)
}

func TestRetry_ContextCancelled_StopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, zerolog.Nop(), BackoffPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}, func(ctx context.Context) error {
		calls++
		return pipeline.Wrap("backend", pipeline.KindTransient, errors.New("down"))
	})
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}
