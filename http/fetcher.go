// Package http provides an HTTP-based implementation of reswirl.Fetcher
// for retrieving inventory payloads and documentation pages.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lmmx/reswirl"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements reswirl.Fetcher at compile time.
var _ reswirl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw bytes from URLs using plain HTTP requests.
// Inventory files and rendered Sphinx pages are static content, so no
// JavaScript execution is needed.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the body bytes from the given URL. A deadline expiry
// fails with ETIMEOUT; any other transport or status failure fails with
// EFETCH. A timed-out fetch never returns partial bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EINVALID, "building request for %s: %v", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, reswirl.Errorf(reswirl.ETIMEOUT, "fetch timed out after %s: %s", f.timeout, url)
		}
		return nil, reswirl.Errorf(reswirl.EFETCH, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, reswirl.Errorf(reswirl.ENOTFOUND, "HTTP 404 for %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, reswirl.Errorf(reswirl.EFETCH, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, reswirl.Errorf(reswirl.ETIMEOUT, "fetch timed out after %s: %s", f.timeout, url)
		}
		return nil, reswirl.Errorf(reswirl.EFETCH, "reading body from %s: %v", url, err)
	}

	return body, nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// isTimeout reports whether err stems from a deadline rather than a
// transport fault.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
