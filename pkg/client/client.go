// Package client provides the HTTP client shared by the catalog and
// torrent integrations. It retries requests rejected with 429 using the
// server-provided Retry-After when present, exponential backoff otherwise.
package client

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/mock_client.go github.com/mediaporter/mediaporter/pkg/client HTTPClient

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = time.Millisecond * 500
)

type RateLimitedClient struct {
	client      HTTPClient
	baseBackoff time.Duration
	maxRetries  int
}

// Option configures a RateLimitedClient.
type Option func(*RateLimitedClient)

// NewRateLimited creates a client that respects 429 status codes. The
// returned client is safe for concurrent use.
func NewRateLimited(opts ...Option) *RateLimitedClient {
	c := &RateLimitedClient{
		client:      http.DefaultClient,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Non-positive values would skip the request loop entirely.
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.baseBackoff <= 0 {
		c.baseBackoff = DefaultBaseBackoff
	}

	return c
}

// WithMaxRetries sets the maximum number of retries for the client.
func WithMaxRetries(maxRetries int) Option {
	return func(c *RateLimitedClient) {
		c.maxRetries = maxRetries
	}
}

// WithBaseBackoff sets the base backoff time for the client.
func WithBaseBackoff(baseBackoff time.Duration) Option {
	return func(c *RateLimitedClient) {
		c.baseBackoff = baseBackoff
	}
}

// WithHTTPClient sets the underlying http client.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *RateLimitedClient) {
		c.client = client
	}
}

// Do executes the request, blocking through rate-limit backoff. If the
// retry budget is exhausted the last response is returned alongside the error.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err = c.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryAfter := c.retryAfter(resp, attempt)
		resp.Body.Close()

		timer := time.NewTimer(retryAfter)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return resp, fmt.Errorf("rate limit exceeded after %d retries", c.maxRetries)
}

func (c *RateLimitedClient) retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// 2^n backoff
	return time.Duration(1<<attempt) * c.baseBackoff
}
