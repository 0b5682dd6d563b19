// Package enrich appends per-symbol documentation text to an inventory
// table, fanning fetches out across a bounded worker pool.
package enrich

import (
	"context"

	"github.com/lmmx/reswirl"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency bounds the fan-out when none is configured. Symbol
// counts reach into the thousands, so serial fetching is not an option,
// but documentation hosts should not be hammered either.
const DefaultConcurrency = 10

// FetchDocFunc retrieves the documentation text for one symbol.
type FetchDocFunc func(ctx context.Context, rec reswirl.SymbolRecord) (string, error)

// Ensure Enricher implements reswirl.Enricher at compile time.
var _ reswirl.Enricher = (*Enricher)(nil)

// Enricher runs per-symbol documentation fetches concurrently and
// assembles the results back into original row order. Each row's fetch is
// independent: one failure is recorded in that row and never aborts the
// rest.
type Enricher struct {
	FetchDoc FetchDocFunc

	// Concurrency bounds the number of in-flight fetches.
	// Zero means DefaultConcurrency.
	Concurrency int

	// Limiter, when set, throttles fetch issuance across all workers.
	Limiter *rate.Limiter
}

// Enrich returns a new table with a documentation column. On cancellation
// it stops issuing new fetches immediately and returns the rows enriched
// so far, with unattempted rows marked canceled; the input table is never
// mutated.
func (e *Enricher) Enrich(ctx context.Context, t *reswirl.Table) (*reswirl.Table, error) {
	if e.FetchDoc == nil {
		return nil, reswirl.Errorf(reswirl.EINVALID, "enricher has no fetch function")
	}

	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	rows := t.Rows()
	docs := make([]reswirl.DocResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rec := range rows {
		// Stop issuing new fetches as soon as the caller cancels.
		if err := gctx.Err(); err != nil {
			docs[i] = reswirl.DocResult{Err: "canceled: " + err.Error()}
			continue
		}

		g.Go(func() error {
			docs[i] = e.fetchOne(gctx, rec)
			return nil
		})
	}

	// Workers never return errors; per-row failures live in docs.
	_ = g.Wait()

	return t.WithDocs(docs)
}

// fetchOne performs a single rate-limited fetch, converting any failure
// into a per-row result.
func (e *Enricher) fetchOne(ctx context.Context, rec reswirl.SymbolRecord) reswirl.DocResult {
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return reswirl.DocResult{Err: "canceled: " + err.Error()}
		}
	}
	if err := ctx.Err(); err != nil {
		return reswirl.DocResult{Err: "canceled: " + err.Error()}
	}

	text, err := e.FetchDoc(ctx, rec)
	if err != nil {
		return reswirl.DocResult{Err: reswirl.ErrorMessage(err)}
	}
	return reswirl.DocResult{Text: text}
}
