package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

// Definition is the user-supplied part of a pipeline.
type Definition struct {
	Description   string
	Normalization technique.Normalization
	RankConstant  int
	Combination   technique.Combination
	Weights       []float32
}

// Service handles search pipeline CRUD operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates a pipeline service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Put validates and stores a pipeline under name, replacing any existing one.
// Reports whether the pipeline was newly created.
func (s *Service) Put(ctx context.Context, name string, def Definition) (dompipe.Pipeline, bool, error) {
	p, err := dompipe.New(
		name, def.Description,
		def.Normalization, def.RankConstant,
		def.Combination, def.Weights,
		s.now().UnixMilli(),
	)
	if err != nil {
		return dompipe.Pipeline{}, false, fmt.Errorf("validate pipeline: %w: %w", domain.ErrInvalidPipeline, err)
	}

	created, err := s.repo.Put(ctx, p)
	if err != nil {
		return dompipe.Pipeline{}, false, fmt.Errorf("put pipeline: %w", err)
	}
	return p, created, nil
}

// Get retrieves a pipeline by name.
func (s *Service) Get(ctx context.Context, name string) (dompipe.Pipeline, error) {
	p, err := s.repo.Get(ctx, name)
	if err != nil {
		return dompipe.Pipeline{}, fmt.Errorf("get pipeline: %w", err)
	}
	return p, nil
}

// List returns all pipelines.
func (s *Service) List(ctx context.Context) ([]dompipe.Pipeline, error) {
	ps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return ps, nil
}

// Delete removes a pipeline.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	return nil
}

// Count returns the number of stored pipelines.
func (s *Service) Count(ctx context.Context) (int, error) {
	ps, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ps), nil
}
