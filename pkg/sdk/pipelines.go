package vecfuse

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
)

// PipelineService manages named search pipelines.
type PipelineService struct {
	svc pipelineUseCase
	obs *observer
}

// Put validates and stores a pipeline under name, replacing any existing
// definition. Reports whether the pipeline was newly created.
func (s *PipelineService) Put(
	ctx context.Context, name string, spec PipelineSpec,
) (_ PipelineInfo, created bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("pipeline.put", start, err) }()

	norm, comb, err := parseTechniques(spec.Normalization, spec.Combination)
	if err != nil {
		return PipelineInfo{}, false, fmt.Errorf("put pipeline: %w: %w", domain.ErrInvalidPipeline, err)
	}

	p, created, err := s.svc.Put(ctx, name, pipelineuc.Definition{
		Description:   spec.Description,
		Normalization: norm,
		RankConstant:  spec.RankConstant,
		Combination:   comb,
		Weights:       spec.Weights,
	})
	if err != nil {
		return PipelineInfo{}, false, fmt.Errorf("put pipeline: %w", err)
	}
	return fromPipeline(p), created, nil
}

// Get retrieves a pipeline by name.
func (s *PipelineService) Get(ctx context.Context, name string) (_ PipelineInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("pipeline.get", start, err) }()

	p, err := s.svc.Get(ctx, name)
	if err != nil {
		return PipelineInfo{}, fmt.Errorf("get pipeline: %w", err)
	}
	return fromPipeline(p), nil
}

// List returns all pipelines sorted by name.
func (s *PipelineService) List(ctx context.Context) (_ []PipelineInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("pipeline.list", start, err) }()

	ps, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	out := make([]PipelineInfo, len(ps))
	for i, p := range ps {
		out[i] = fromPipeline(p)
	}
	return out, nil
}

// Delete removes a pipeline.
func (s *PipelineService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("pipeline.delete", start, err) }()

	if err = s.svc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	return nil
}
