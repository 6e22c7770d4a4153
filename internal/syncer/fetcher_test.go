package syncer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

func newTestFetcher(baseURL string) *HTTPFetcher {
	return NewHTTPFetcher(HTTPFetcherConfig{
		BaseURL:           baseURL,
		Timeout:           500 * time.Millisecond,
		RequestsPerSecond: 1000,
	})
}

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tutorials/swiftui.json", r.URL.Path)
		w.Write([]byte(`{"title":"SwiftUI"}`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(srv.URL).Fetch(context.Background(), "tutorials/swiftui.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"SwiftUI"}`, string(body))
}

func TestHTTPFetcher_NotFoundIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).Fetch(context.Background(), "missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, apperrors.IsRetryable(err))
}

func TestHTTPFetcher_RetryableStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadGateway, ErrServerError},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := newTestFetcher(srv.URL).Fetch(context.Background(), "x.json")
		srv.Close()

		require.Error(t, err, "status %d", tt.status)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		assert.True(t, apperrors.IsRetryable(err), "status %d", tt.status)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{
		BaseURL:           srv.URL,
		Timeout:           50 * time.Millisecond,
		RequestsPerSecond: 1000,
	})
	_, err := f.Fetch(context.Background(), "slow.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestHTTPFetcher_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher(srv.URL).Fetch(ctx, "x.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrTimeout))
}

func TestHTTPFetcher_FractionalRateStillFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// A rate below one request per second must still allow the first
	// request through instead of waiting on a zero-size burst.
	f := NewHTTPFetcher(HTTPFetcherConfig{
		BaseURL:           srv.URL,
		Timeout:           500 * time.Millisecond,
		RequestsPerSecond: 0.5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	body, err := f.Fetch(ctx, "x.json")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPFetcher_RetryRecoversFromTransientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	cfg := apperrors.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	body, err := apperrors.RetryWithResult(context.Background(), cfg, func() ([]byte, error) {
		return f.Fetch(context.Background(), "flaky.json")
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())
}
