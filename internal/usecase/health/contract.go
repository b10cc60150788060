package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// PipelineLister checks that the pipeline registry can be read.
type PipelineLister interface {
	Count(ctx context.Context) (int, error)
}
