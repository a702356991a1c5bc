// Package http provides the retrying JSON client used for outbound
// webhooks and REST integrations, an API error taxonomy and a lazy page
// iterator for paginated listings.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultMaxRetries is the default number of attempts.
const DefaultMaxRetries = 3

// DefaultRetryWait is the initial wait between attempts; it doubles on
// every retry.
const DefaultRetryWait = 500 * time.Millisecond

// Client sends JSON requests and retries transient failures.
type Client struct {
	client      *http.Client
	baseURL     string
	serviceName string
	maxRetries  int
	retryWait   time.Duration
	headers     map[string]string
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client      *http.Client
	BaseURL     string
	ServiceName string
	MaxRetries  int
	RetryWait   time.Duration
	// Headers are set on every request.
	Headers map[string]string
}

// NewClient creates a Client. Zero values select the defaults.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:      cfg.Client,
		baseURL:     cfg.BaseURL,
		serviceName: cfg.ServiceName,
		maxRetries:  cfg.MaxRetries,
		retryWait:   cfg.RetryWait,
		headers:     cfg.Headers,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryWait <= 0 {
		c.retryWait = DefaultRetryWait
	}
	if c.serviceName == "" {
		c.serviceName = "http"
	}
	return c
}

// Do sends a JSON request to baseURL+path, retrying network errors, 429
// and 5xx responses with exponential backoff (or Retry-After). The caller
// closes the returned body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + path
	var lastErr error
	for attempt := range c.maxRetries {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		last := attempt == c.maxRetries-1
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%s request failed: %w", c.serviceName, err)
			if last {
				return nil, lastErr
			}
			if werr := sleep(ctx, c.retryWait*time.Duration(1<<attempt)); werr != nil {
				return nil, werr
			}
		case retryable(resp.StatusCode) && !last:
			wait := c.waitFor(resp, attempt)
			resp.Body.Close()
			if werr := sleep(ctx, wait); werr != nil {
				return nil, werr
			}
		default:
			return resp, nil
		}
	}
	return nil, lastErr
}

// Post sends body and decodes a JSON reply into result when result is
// non-nil. Status codes >= 400 become *APIError.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp, path, result)
}

// Get decodes a JSON reply into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp, path, result)
}

func (c *Client) decode(resp *http.Response, path string, result any) error {
	if resp.StatusCode >= 400 {
		return c.apiError(resp, path)
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{
		Service:    c.serviceName,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		apiErr.Message = errResp.Message
		if apiErr.Message == "" {
			apiErr.Message = errResp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func (c *Client) waitFor(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if seconds, err := strconv.Atoi(s); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return c.retryWait * time.Duration(1<<attempt)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
