package pipeline

import (
	"context"

	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
)

// Repository defines the storage contract for search pipelines.
type Repository interface {
	Put(ctx context.Context, p dompipe.Pipeline) (bool, error)
	Get(ctx context.Context, name string) (dompipe.Pipeline, error)
	List(ctx context.Context) ([]dompipe.Pipeline, error)
	Delete(ctx context.Context, name string) error
}
