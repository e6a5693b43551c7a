// Package fetch provides the HTTP client shared by every lyric provider.
//
// Providers differ in endpoints and payloads but not in how they talk HTTP:
// all requests carry the same User-Agent, the same per-request timeout, and the
// same bounded retry policy. Transient network errors and 429/503 responses are
// retried a fixed number of times; any other failure is returned immediately.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultRetries   = 2
	DefaultBackoff   = 500 * time.Millisecond
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "lyricpass/1.0"

	maxBodySize   = 8 << 20
	maxRetryAfter = 30 * time.Second
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from a provider.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Options configures a Client. Zero values fall back to the defaults above,
// except Retries where a negative value disables retrying.
type Options struct {
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
	UserAgent string
}

// Client performs GET/POST requests with retry.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retries    int
	backoff    time.Duration
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
	}
}

// NewDefault returns a Client with the default retry policy.
func NewDefault() *Client {
	return New(Options{Retries: DefaultRetries})
}

// Get fetches rawURL and returns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(req)
}

// Do executes req with the retry policy. Requests with a body must be
// replayable (http.NewRequest sets GetBody for the common reader types).
func (c *Client) Do(req *http.Request) ([]byte, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		body, wait, err := c.once(req)
		if err == nil {
			return body, nil
		}
		if attempt >= c.retries || !retryable(ctx, err) {
			return nil, err
		}
		if wait <= 0 {
			wait = c.backoff
		}

		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(wait):
		}

		next := req.Clone(ctx)
		if req.GetBody != nil {
			rc, gerr := req.GetBody()
			if gerr != nil {
				return nil, err
			}
			next.Body = rc
		}
		req = next
	}
}

// once performs a single attempt. The returned duration is the server's
// Retry-After hint, if any.
func (c *Client) once(req *http.Request) ([]byte, time.Duration, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response from %s: %w", req.URL.Host, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{URL: req.URL.Host + req.URL.Path, Code: resp.StatusCode}
		if len(body) > 0 && len(body) <= 200 {
			se.Body = string(body)
		}
		return nil, retryAfter(resp.Header.Get("Retry-After")), se
	}
	return body, 0, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code == http.StatusServiceUnavailable
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
