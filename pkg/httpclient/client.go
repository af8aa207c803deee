// Package httpclient provides the rate-limited, retrying HTTP client shared by
// the design-tool and documentation-platform API clients. Retry and rate
// limits are policy knobs, not constants: both external APIs throttle, and a
// sync run fans out many small requests.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Options configures client behaviour.
type Options struct {
	// BaseURL prefixes every request path. Required.
	BaseURL string

	// Auth applies authentication to outgoing requests. Defaults to NoAuth.
	Auth Auth

	// Timeout caps individual request durations. Default 30s.
	Timeout time.Duration

	// MaxRetries bounds retry attempts for transient failures. Default 3.
	MaxRetries int

	// RetryBaseDelay is the first backoff interval; it doubles per attempt.
	// Default 100ms.
	RetryBaseDelay time.Duration

	// RateLimit is the sustained request rate in requests per second.
	// Default 5.
	RateLimit float64

	// RateBurst is the limiter burst size. Default 5.
	RateBurst int

	// UserAgent identifies this tool to the remote API.
	UserAgent string

	// Transport allows injecting a custom http.RoundTripper for tests.
	Transport http.RoundTripper
}

func (o *Options) applyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryBaseDelay == 0 {
		o.RetryBaseDelay = 100 * time.Millisecond
	}
	if o.RateLimit == 0 {
		o.RateLimit = 5.0
	}
	if o.RateBurst == 0 {
		o.RateBurst = 5
	}
	if o.UserAgent == "" {
		o.UserAgent = "mpt-objects-inventory/1.0"
	}
	if o.Auth == nil {
		o.Auth = NoAuth{}
	}
}

// Client wraps http.Client with per-client rate limiting and bounded
// exponential-backoff retries.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a Client for the given base URL.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("httpclient: base url is required")
	}
	opts.applyDefaults()

	return &Client{
		opts: opts,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
	}, nil
}

// Request describes one HTTP call. Body is kept as bytes so retries can
// replay it.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte

	// AbsoluteURL bypasses BaseURL/Path resolution. Some APIs hand back
	// fully-qualified download URLs on a different host; those still deserve
	// the same retry and rate-limit treatment.
	AbsoluteURL string
}

// Response carries the remote reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into target.
func (r *Response) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// HTTPError is returned for 4xx/5xx responses.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("httpclient: status %d: %s", e.StatusCode, body)
}

// Do executes the request, retrying transient failures with exponential
// backoff. Non-retryable errors (4xx other than 429) surface immediately.
// Every attempt takes a token from the rate limiter, retries included, so a
// retry storm cannot exceed the configured rate.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.opts.RetryBaseDelay << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("httpclient: rate limiter: %w", err)
		}

		resp, err := c.doOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Retryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("httpclient: retries exhausted: %w", lastErr)
}

func (c *Client) doOnce(ctx context.Context, req *Request) (*Response, error) {
	fullURL := req.AbsoluteURL
	if fullURL == "" {
		fullURL = strings.TrimSuffix(c.opts.BaseURL, "/")
		if req.Path != "" {
			fullURL += "/" + strings.TrimPrefix(req.Path, "/")
		}
	}
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	// Signed download URLs live on a different host and carry their own
	// authorisation; API credentials must not leak there.
	if req.AbsoluteURL == "" {
		c.opts.Auth.Apply(httpReq)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// GetJSON performs a GET request and decodes the response into target.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	return resp.JSON(target)
}

// PostJSON performs a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal body: %w", err)
	}
	return c.Do(ctx, &Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	})
}

// PutJSON performs a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal body: %w", err)
	}
	return c.Do(ctx, &Request{
		Method:  http.MethodPut,
		Path:    path,
		Body:    body,
		Headers: map[string]string{"Content-Type": "application/json"},
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Query: query})
}

// Retryable reports whether an error is worth retrying: transport failures,
// 5xx responses, and 429 throttling. Other 4xx responses are terminal.
func Retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
