package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client is a wrapper for HTTP client with a hard request timeout and an
// optional bounded retry window.
type Client struct {
	HTTPClient      *http.Client
	maxRetryElapsed time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout time.Duration
	// MaxRetryElapsed caps the total time spent retrying a failed request.
	// Zero disables retries entirely, making every call single-shot.
	MaxRetryElapsed time.Duration
}

// NewClient creates a new HTTP client
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetryElapsed: opts.MaxRetryElapsed,
	}
}

// DoRequest performs an HTTP request. A non-2xx status is returned as an
// HTTPStatusError so callers can tell upstream failures from transport ones.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		attempt, err := cloneRequest(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err = c.HTTPClient.Do(attempt)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return &HTTPStatusError{StatusCode: resp.StatusCode}
		}
		return nil
	}

	if c.maxRetryElapsed == 0 {
		if err := operation(); err != nil {
			return nil, err
		}
		return resp, nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.maxRetryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// cloneRequest rebuilds the request body so the same request can be sent
// more than once.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	attempt := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attempt.Body = body
	}
	return attempt, nil
}

// HTTPStatusError represents an error due to a non-2xx HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "unexpected status code: " + http.StatusText(e.StatusCode)
}
