package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobscout/internal/errors"
)

const (
	DefaultUserAgent = "jobscout/1.0 (+https://github.com/jobscout)"
	DefaultTimeout   = 20 * time.Second

	maxBodyBytes = 8 << 20
)

// Client performs rate-limited GET requests on behalf of the adapters.
type Client struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
}

// NewClient builds a client. A zero timeout uses DefaultTimeout; a nil limiter
// disables per-host limiting.
func NewClient(timeout time.Duration, userAgent string, limiter *HostLimiter) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		hc:        &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Get fetches rawURL and returns the body. Transport failures and non-2xx
// statuses are returned as fetch errors.
func (c *Client) Get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable, "rate limiter wait aborted", err).
			WithContext("url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable, "invalid request", err).
			WithContext("url", rawURL)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable, "request failed", err).
			WithContext("url", rawURL)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable,
			fmt.Sprintf("unexpected status %d", res.StatusCode), nil).
			WithContext("url", rawURL).
			WithContext("status", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable, "reading response body", err).
			WithContext("url", rawURL)
	}
	return body, nil
}
