package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DefaultMaxAttempts bounds every request, first try included
const DefaultMaxAttempts = 3

// maxErrorBody is how much of a failed response body is kept for the error
const maxErrorBody = 4096

// Client is a wrapper for HTTP client with rate limiting
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	maxAttempts     int
	initialInterval time.Duration
	maxRetryTimeout time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
	MaxAttempts       int
	InitialInterval   time.Duration
	MaxRetryTimeout   time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = 200
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.Burst),
		maxAttempts:     opts.MaxAttempts,
		initialInterval: opts.InitialInterval,
		maxRetryTimeout: opts.MaxRetryTimeout,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Network errors and 5xx responses are retried with exponential backoff;
// 4xx responses fail immediately. Any 2xx response is returned to the caller,
// who must close its body. The request body is replayed through GetBody.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		// every attempt spends a token
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("rewinding request body: %w", err))
			}
			attempt.Body = body
		}

		var err error
		resp, err = c.HTTPClient.Do(attempt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			return err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		resp = nil

		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return backoff.Permanent(statusErr)
		}
		return statusErr
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = c.initialInterval
	backoffStrategy.MaxElapsedTime = c.maxRetryTimeout

	policy := backoff.WithContext(backoff.WithMaxRetries(backoffStrategy, uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return resp, nil
}

// HTTPStatusError represents an error due to a non-2xx HTTP status code
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("non-2xx status code: %s: %s", http.StatusText(e.StatusCode), e.Body)
	}
	return "non-2xx status code: " + http.StatusText(e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if there is none
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
