package fusion

import (
	"context"

	"github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
)

// PipelineReader resolves named search pipelines.
type PipelineReader interface {
	Get(ctx context.Context, name string) (pipeline.Pipeline, error)
}
