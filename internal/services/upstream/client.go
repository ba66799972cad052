package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/rankboard/internal/providers"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the upstream answers 404
var ErrNotFound = errors.New("upstream resource not found")

const maxErrorBody = 512

// Client is the HTTP plumbing shared by the provider adapters
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
	logger     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLimiter throttles outgoing requests client-side
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithTimeout overrides the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a client for one upstream
func New(name, baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    map[string]string{"Accept": "application/json"},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON performs a GET on baseURL+path and decodes the JSON body into result
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	body, err := c.get(ctx, fullURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if result != nil {
		if err := json.NewDecoder(body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode %s response: %v", providers.ErrUpstreamUnavailable, c.name, err)
		}
	}
	return nil
}

// GetRaw fetches an absolute URL and returns the body. The caller closes it.
func (c *Client) GetRaw(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return c.get(ctx, rawURL)
}

func (c *Client) get(ctx context.Context, fullURL string) (io.ReadCloser, error) {
	if c.limiter != nil {
		// Wait fails fast when the reservation would outlive the context deadline
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s client-side limit: %v", providers.ErrRateLimited, c.name, err)
		}
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"provider": c.name,
			"url":      redact(fullURL),
		}).Debug("Making upstream request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", providers.ErrUpstreamUnavailable, c.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned 429", providers.ErrRateLimited, c.name)
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d: %s", providers.ErrUpstreamUnavailable, c.name, resp.StatusCode, string(bodyBytes))
	}

	return resp.Body, nil
}

// redact hides API keys from logged URLs
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, key := range []string{"api_key", "key"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
