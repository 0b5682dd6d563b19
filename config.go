package reswirl

import (
	"context"
	"time"
)

// Config controls a single inventory resolution.
type Config struct {
	// ForceRefresh bypasses the cache entirely, both for reads and the
	// staleness check. The fresh result is still written back.
	ForceRefresh bool

	// Enrich runs the documentation enricher over the decoded table.
	Enrich bool

	// Timeout bounds the full-inventory fetch. Zero means the fetcher's
	// default applies.
	Timeout time.Duration

	// FallbackHosts is an ordered list of documentation base URL
	// candidates tried when registry metadata is silent. Each entry may
	// contain the "{package}" placeholder. When non-nil it replaces the
	// resolver's configured list.
	FallbackHosts []string

	// Concurrency bounds enrichment fan-out. Zero means the enricher's
	// default applies.
	Concurrency int
}

// Enricher appends a per-symbol documentation column to a table.
// Enrichment is best-effort per row: one symbol's fetch failure is
// recorded in its row and never aborts the rest.
type Enricher interface {
	Enrich(ctx context.Context, t *Table) (*Table, error)
}
