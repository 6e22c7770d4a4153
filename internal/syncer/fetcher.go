package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// Typed fetch outcomes. ErrNotFound is terminal for the item; the
// others are transient and retried with backoff.
var (
	ErrNotFound    = apperrors.New(apperrors.ErrCodeFetchNotFound, "content not found", nil)
	ErrRateLimited = apperrors.New(apperrors.ErrCodeFetchRateLimit, "rate limited by remote", nil)
	ErrServerError = apperrors.New(apperrors.ErrCodeFetchServer, "remote server error", nil)
	ErrTimeout     = apperrors.New(apperrors.ErrCodeFetchTimeout, "fetch timed out", nil)
)

// ContentFetcher returns, per path, raw content or a typed outcome.
type ContentFetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches content over HTTP with a per-request timeout and
// an outbound rate limit. The per-fetch timeout is deliberately short:
// a stalled endpoint degrades one file to failed, not the whole phase.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// HTTPFetcherConfig configures an HTTPFetcher.
type HTTPFetcherConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewHTTPFetcher creates a fetcher for the given content source root.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 750 * time.Millisecond
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 100
	}
	// Sub-1 rates truncate to a zero burst, which would fail every Wait.
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
	}
}

// Fetch retrieves one path relative to the base URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	u, err := url.JoinPath(f.baseURL, path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFetchNotFound,
			fmt.Sprintf("invalid fetch path %q", path), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeFetchServer, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetch %s: %w", path, ErrTimeout)
		}
		return nil, fmt.Errorf("fetch %s: %w", path, apperrors.Wrap(apperrors.ErrCodeFetchServer, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, apperrors.Wrap(apperrors.ErrCodeFetchServer, err))
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fetch %s: %w", path, ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("fetch %s: status %d: %w", path, resp.StatusCode, ErrServerError)
	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %d: %w", path, resp.StatusCode, ErrServerError)
	}
}
