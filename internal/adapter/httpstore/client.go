// Package httpstore fetches dataset assets from a static HTTP host.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/soundscape-data/internal/domain"
	"github.com/couchcryptid/soundscape-data/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultMaxAssetSize bounds a single asset body.
const DefaultMaxAssetSize = 256 << 20

// Client implements domain.AssetStore by issuing GET baseURL/key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxSize    int64
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithClock sets the time source used for fetch timing.
func WithClock(c clockwork.Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

// WithMaxAssetSize overrides DefaultMaxAssetSize.
func WithMaxAssetSize(n int64) Option {
	return func(cl *Client) { cl.maxSize = n }
}

// NewClient creates an asset client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: DefaultMaxAssetSize,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the asset stored under key. A 404 maps to domain.ErrAssetNotFound.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := c.clock.Now()
	defer func() {
		c.metrics.AssetFetchDuration.WithLabelValues("http").Observe(c.clock.Since(start).Seconds())
	}()

	u, err := c.assetURL(key)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", key, domain.ErrAssetNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("asset host error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(body)) > c.maxSize {
		return nil, fmt.Errorf("asset %s exceeds %d bytes", key, c.maxSize)
	}
	c.logger.Debug("asset fetched", "key", key, "bytes", len(body))
	return body, nil
}

func (c *Client) assetURL(key string) (string, error) {
	u, err := url.JoinPath(c.baseURL, strings.Split(key, "/")...)
	if err != nil {
		return "", fmt.Errorf("build asset url: %w", err)
	}
	return u, nil
}
