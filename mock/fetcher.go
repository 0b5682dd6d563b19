// Package mock provides function-field mock implementations of the
// reswirl domain interfaces for use in tests.
package mock

import (
	"context"

	"github.com/lmmx/reswirl"
)

var _ reswirl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of reswirl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) ([]byte, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
