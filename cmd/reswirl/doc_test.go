package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lmmx/reswirl"
	"github.com/lmmx/reswirl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docPage = `<html><body><div role="main"><p>Page body.</p></div></body></html>`

func TestDocFetcher(t *testing.T) {
	t.Parallel()

	t.Run("fetches distinct pages in parallel", func(t *testing.T) {
		t.Parallel()

		const pages = 4

		var mu sync.Mutex
		inFlight, peak := 0, 0
		barrier := make(chan struct{})
		var once sync.Once

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) ([]byte, error) {
				mu.Lock()
				inFlight++
				if inFlight > peak {
					peak = inFlight
				}
				arrived := inFlight
				mu.Unlock()

				if arrived == pages {
					once.Do(func() { close(barrier) })
				}

				// Wait for the other fetches to arrive; the timeout
				// keeps a serialized run failing instead of hanging.
				select {
				case <-barrier:
				case <-time.After(2 * time.Second):
				}

				mu.Lock()
				inFlight--
				mu.Unlock()
				return []byte(docPage), nil
			},
		}

		fetchDoc := newDocFetcher(fetcher, "https://docs.example.org")

		var wg sync.WaitGroup
		for i := range pages {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := reswirl.SymbolRecord{
					Name:     fmt.Sprintf("sym%d", i),
					Domain:   "py",
					Role:     "function",
					Location: fmt.Sprintf("page%d.html", i),
				}
				doc, err := fetchDoc(context.Background(), rec)
				assert.NoError(t, err)
				assert.Contains(t, doc, "Page body.")
			}()
		}
		wg.Wait()

		assert.Equal(t, pages, peak, "distinct pages download concurrently")
	})

	t.Run("fetches a shared page only once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) ([]byte, error) {
				calls.Add(1)
				return []byte(docPage), nil
			},
		}

		fetchDoc := newDocFetcher(fetcher, "https://docs.example.org")

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := reswirl.SymbolRecord{
					Name:     fmt.Sprintf("sym%d", i),
					Domain:   "py",
					Role:     "function",
					Location: "shared.html",
				}
				_, err := fetchDoc(context.Background(), rec)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load(), "concurrent requests for one page coalesce")
	})

	t.Run("rejects a record without a location", func(t *testing.T) {
		t.Parallel()

		fetchDoc := newDocFetcher(&mock.Fetcher{}, "https://docs.example.org")

		_, err := fetchDoc(context.Background(), reswirl.SymbolRecord{Name: "ghost"})
		require.Error(t, err)
		assert.Equal(t, reswirl.EINVALID, reswirl.ErrorCode(err))
	})
}
