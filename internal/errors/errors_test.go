package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	err := New(ErrCodeIndexCorrupt, "index file unreadable", nil)

	assert.Equal(t, CategoryStorage, err.Category)
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.False(t, err.Retryable)
}

func TestNew_WriteFailuresAreFatal(t *testing.T) {
	err := New(ErrCodeIndexWrite, "disk is full", nil)

	assert.Equal(t, CategoryStorage, err.Category)
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.True(t, IsFatal(fmt.Errorf("indexing batch: %w", err)))
}

func TestNew_NetworkErrorsAreRetryable(t *testing.T) {
	for _, code := range []string{ErrCodeFetchTimeout, ErrCodeFetchRateLimit, ErrCodeFetchServer} {
		err := New(code, "fetch failed", nil)
		assert.True(t, err.Retryable, "code %s should be retryable", code)
	}

	notFound := New(ErrCodeFetchNotFound, "missing", nil)
	assert.False(t, notFound.Retryable, "404 is terminal per item")
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCodeIndexWrite, cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ERR_203_INDEX_WRITE")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeIndexWrite, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeSchemaMismatch, "schema v1 vs v2", nil)
	b := New(ErrCodeSchemaMismatch, "different message", nil)

	assert.True(t, errors.Is(a, b))
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeInvalidDocument, "missing uri", nil).
		WithDetail("source", "apple-docs").
		WithSuggestion("check the producer output")

	assert.Equal(t, "apple-docs", err.Details["source"])
	assert.Equal(t, "check the producer output", err.Suggestion)
}

func TestIsRetryable_WalksChain(t *testing.T) {
	inner := New(ErrCodeFetchTimeout, "timeout", nil)
	wrapped := fmt.Errorf("fetching swiftui/view: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeFetchTimeout, "timeout", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnTerminalError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return New(ErrCodeFetchNotFound, "gone", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "404 must not be retried")
}

func TestRetry_ExhaustionWrapsLastError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	err := Retry(context.Background(), cfg, func() error {
		return New(ErrCodeFetchServer, "503", nil)
	})

	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "failed after 2 retries")
}

func TestRetry_HonorsContextCancellation(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, cfg, func() error {
		return New(ErrCodeFetchTimeout, "timeout", nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	got, err := RetryWithResult(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", New(ErrCodeFetchServer, "502", nil)
		}
		return "content", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "content", got)
}
