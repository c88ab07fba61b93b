package pipelineerrors

import (
	"context"
)

// Repository defines persistence for pipeline errors
type Repository interface {
	Save(ctx context.Context, e *PipelineError) error
	ListByDocument(ctx context.Context, tenant string, documentID string, limit int) ([]*PipelineError, error)
}
