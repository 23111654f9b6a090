// Package fetch performs the single-shot HTTP GETs used for feeds and
// article pages. Nothing here retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes bounds how much of a response is read into memory.
var maxBodyBytes int64 = 10 << 20

// ErrBodyTooLarge is returned for responses longer than the read limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// HTTPClient is the transport collaborator. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient returns an http.Client bounded by timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

// Page is a fetched response body.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// Get fetches url once. Transport failures and non-2xx statuses are
// returned as errors; callers decide whether they are fatal.
func Get(ctx context.Context, client HTTPClient, url, userAgent string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", url, ErrBodyTooLarge, maxBodyBytes)
	}

	return &Page{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
