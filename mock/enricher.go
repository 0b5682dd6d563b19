package mock

import (
	"context"

	"github.com/lmmx/reswirl"
)

var _ reswirl.Enricher = (*Enricher)(nil)

// Enricher is a mock implementation of reswirl.Enricher.
type Enricher struct {
	EnrichFn func(ctx context.Context, t *reswirl.Table) (*reswirl.Table, error)
}

func (e *Enricher) Enrich(ctx context.Context, t *reswirl.Table) (*reswirl.Table, error) {
	return e.EnrichFn(ctx, t)
}
