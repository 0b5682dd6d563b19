package mock

import (
	"context"

	"github.com/lmmx/reswirl"
)

var _ reswirl.MetadataService = (*MetadataService)(nil)

// MetadataService is a mock implementation of reswirl.MetadataService.
type MetadataService struct {
	ProjectMetadataFn func(ctx context.Context, pkg string) (*reswirl.ProjectMetadata, error)
}

func (s *MetadataService) ProjectMetadata(ctx context.Context, pkg string) (*reswirl.ProjectMetadata, error) {
	return s.ProjectMetadataFn(ctx, pkg)
}
