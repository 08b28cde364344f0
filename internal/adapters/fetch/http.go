package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// HTTPFetcher downloads over HTTP(S), retrying transient failures.
type HTTPFetcher struct {
	client *retryablehttp.Client
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*retryablehttp.Client)

// WithRetries sets the retry budget and the minimum wait between attempts.
func WithRetries(max int, minWait time.Duration) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.RetryMax = max
		c.RetryWaitMin = minWait
		if c.RetryWaitMax < minWait {
			c.RetryWaitMax = minWait
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.HTTPClient = hc
	}
}

// NewHTTPFetcher creates an HTTPFetcher. Retries are logged through the
// logger attached to the request context.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 3
	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt == 0 {
			return
		}
		if log := ports.LoggerFromContext(req.Context()); log != nil {
			log.Warn(req.Context(), "retrying download", ports.F("url", req.URL.Redacted()), ports.F("attempt", attempt))
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return &HTTPFetcher{client: c}
}

// Fetch streams the response body of a GET request into w.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string, w io.Writer) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: unexpected status %s", source, resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", source, err)
	}
	return n, nil
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)
