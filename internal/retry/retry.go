// Package retry re-runs idempotent operations that failed transiently.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/logger"
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // linear backoff: attempt * Delay
}

// Do calls fn until it succeeds, fails permanently or attempts run out.
// retryable decides whether an error is worth another attempt; nil retries
// every error.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts || (retryable != nil && !retryable(err)) {
			break
		}

		delay := p.Delay
		if p.Backoff {
			delay = time.Duration(attempt) * p.Delay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if made > 1 {
		return fmt.Errorf("failed after %d attempts: %w", made, lastErr)
	}
	return lastErr
}

// Transient reports whether err may go away on a later attempt: transport
// failures, 429 and 5xx responses. Cancellation and oversized bodies are
// never transient.
func Transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, fetch.ErrBodyTooLarge) {
		return false
	}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// Client retries GET requests that fail transiently. Requests with a body
// are sent once.
type Client struct {
	Inner  fetch.HTTPClient
	Policy Policy
}

func NewClient(inner fetch.HTTPClient, p Policy) *Client {
	return &Client{Inner: inner, Policy: p}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		return c.Inner.Do(req)
	}

	var resp *http.Response
	err := Do(req.Context(), c.Policy, Transient, func() error {
		r, err := c.Inner.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			resp = r
			r.Body.Close()
			logger.Debug("Retrying request", "url", req.URL.String(), "status", r.StatusCode)
			return &fetch.StatusError{URL: req.URL.String(), Code: r.StatusCode}
		}
		resp = r
		return nil
	})
	if err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) && resp != nil {
			// Hand the last status back so the caller classifies it.
			resp.Body = http.NoBody
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}
