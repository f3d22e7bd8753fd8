package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client provides a configurable HTTP client with retry support
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	userAgent  string
}

// New creates a new HTTP client with the specified timeout
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		maxRetries: 3,
		backoff:    2 * time.Second,
	}
}

// WithUserAgent sets a default User-Agent header for all requests.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithRetries overrides the retry count and base backoff.
func (c *Client) WithRetries(n int, backoff time.Duration) *Client {
	c.maxRetries = n
	c.backoff = backoff
	return c
}

// Get performs a GET request with proper context and headers
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

// Post performs a POST request with proper context and headers
func (c *Client) Post(ctx context.Context, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	if headers["Content-Type"] == "" {
		headers["Content-Type"] = "application/json"
	}
	return c.do(ctx, http.MethodPost, url, body, headers)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, url, nil, headers)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between attempts. POST bodies are not
			// replayable so only idempotent methods are retried.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if method != http.MethodGet {
				return nil, err
			}
			continue
		}
		if method == http.MethodGet && retryableStatus(resp.StatusCode) && attempt < c.maxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// GetTimeout returns the client timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}
