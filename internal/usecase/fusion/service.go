package fusion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
	"github.com/kailas-cloud/vecfuse/internal/fusion/combine"
	"github.com/kailas-cloud/vecfuse/internal/fusion/explain"
	"github.com/kailas-cloud/vecfuse/internal/fusion/merge"
	"github.com/kailas-cloud/vecfuse/internal/fusion/normalize"
	"github.com/kailas-cloud/vecfuse/internal/fusion/paginate"
	"github.com/kailas-cloud/vecfuse/internal/fusion/reconcile"
	"github.com/kailas-cloud/vecfuse/internal/fusion/wire"
	"github.com/kailas-cloud/vecfuse/internal/logger"
	"github.com/kailas-cloud/vecfuse/internal/metrics"
)

// Response is the result of one fusion invocation.
type Response struct {
	InvocationID string
	Pipeline     pipeline.Pipeline
	SubQueries   int
	// Shards holds every shard's re-sorted, re-encoded hits.
	Shards []merge.ShardOutput
	// Hits is the global fused order across all shards.
	Hits     []merge.Hit
	Total    int
	MaxScore float32
	// Fetch is nil when the request carried no fetch phase.
	Fetch []reconcile.ShardRecords
	// Explanations is nil unless explain mode was requested.
	Explanations []explain.ShardTrails
}

// Service runs the score-fusion workflow.
type Service struct {
	pipelines PipelineReader
	defaults  pipeline.Pipeline
}

// New creates a fusion service. pipelines may be nil, in which case named
// pipelines are not available.
func New(pipelines PipelineReader, defaults pipeline.Pipeline) *Service {
	return &Service{pipelines: pipelines, defaults: defaults}
}

// Fuse decodes, normalizes, combines, merges, paginates and reconciles one
// coordinated request.
func (s *Service) Fuse(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = logger.WithFields(ctx, zap.String("fusion_id", id))
	log := logger.FromContext(ctx)

	p, err := s.resolvePipeline(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.fuse(ctx, log, req, p)
	hits := 0
	if resp != nil {
		hits = resp.Total
	}
	metrics.ObserveFusion(string(p.Normalization()), string(p.Combination()), hits, time.Since(start), err)
	if err != nil {
		log.Warn("fusion_failed",
			zap.String("pipeline", p.Name()),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	resp.InvocationID = id
	log.Debug("fusion_done",
		zap.String("pipeline", p.Name()),
		zap.Int("shards", len(resp.Shards)),
		zap.Int("sub_queries", resp.SubQueries),
		zap.Int("hits", resp.Total),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) resolvePipeline(ctx context.Context, req *request.Request) (pipeline.Pipeline, error) {
	if p, ok := req.Inline(); ok {
		return p, nil
	}
	name := req.PipelineName()
	if name == "" {
		return s.defaults, nil
	}
	if s.pipelines == nil {
		return pipeline.Pipeline{}, fmt.Errorf("get pipeline %q: %w", name, domain.ErrNotFound)
	}
	p, err := s.pipelines.Get(ctx, name)
	if err != nil {
		return pipeline.Pipeline{}, fmt.Errorf("get pipeline %q: %w", name, err)
	}
	return p, nil
}

func (s *Service) fuse(
	ctx context.Context, log *zap.Logger, req *request.Request, p pipeline.Pipeline,
) (*Response, error) {
	resp := &Response{Pipeline: p}

	shards := make([]collect.Shard, 0, len(req.Shards()))
	for _, sr := range req.Shards() {
		sections, err := wire.Decode(sr.Hits)
		if err != nil {
			return nil, fmt.Errorf("decode shard %s: %w", sr.Shard, err)
		}
		shards = append(shards, collect.Shard{Identity: sr.Shard, SubQueries: sections})
	}

	tables, err := collect.Collect(shards)
	if err != nil {
		return nil, fmt.Errorf("collect scores: %w", err)
	}
	resp.SubQueries = len(tables)
	log.Debug("scores_collected", zap.Int("shards", len(shards)), zap.Int("sub_queries", len(tables)))

	if len(shards) == 0 {
		if fetch, ok := req.Fetch(); ok {
			resp.Fetch = make([]reconcile.ShardRecords, 0, len(fetch))
		}
		return resp, nil
	}

	method, err := normalize.NewMethod(p.Normalization(), p.RankConstant())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPipeline, err)
	}
	weights, err := combine.ResolveWeights(p.Weights(), len(tables))
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeAll(ctx, tables, method)
	if err != nil {
		return nil, err
	}

	var rec *explain.Recorder
	if req.Explain() {
		rec = explain.New()
	}
	rec.RecordNormalization(normalized, method.Describe())

	fused, err := combine.Combine(normalized, p.Combination(), weights)
	if err != nil {
		return nil, err
	}
	rec.RecordCombination(fused, combine.Describe(p.Combination(), weights))

	outputs, err := merge.Merge(shards, fused, len(tables))
	if err != nil {
		return nil, fmt.Errorf("merge shards: %w", err)
	}
	resp.Shards = outputs
	resp.Hits = merge.GlobalOrder(outputs)
	resp.Total = len(resp.Hits)
	if resp.Total > 0 {
		resp.MaxScore = resp.Hits[0].Score
	}

	if err := paginate.Validate(req.From(), resp.Total); err != nil {
		return nil, err
	}

	if fetch, ok := req.Fetch(); ok {
		records, err := reconcile.Reconcile(reconcileInputs(req, outputs, fetch))
		if err != nil {
			return nil, fmt.Errorf("reconcile fetch results: %w", err)
		}
		resp.Fetch = records
	}

	resp.Explanations = rec.ByShard(outputs)
	return resp, nil
}

// normalizeAll normalizes every sub-query table concurrently. Tables are
// read-only and each goroutine writes its own slot.
func normalizeAll(
	ctx context.Context, tables []*collect.ScoreTable, m normalize.Method,
) ([]*collect.ScoreTable, error) {
	out := make([]*collect.ScoreTable, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("normalize sub-query %d: %w", i, err)
			}
			out[i] = normalize.Normalize(t, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per sub-query
	}
	return out, nil
}

func reconcileInputs(
	req *request.Request, outputs []merge.ShardOutput, fetch []request.FetchSet,
) []reconcile.Input {
	eligible := make(map[shard.Identity]bool, len(req.Shards()))
	for _, sr := range req.Shards() {
		eligible[sr.Shard] = sr.CacheEligible
	}
	docs := make(map[shard.Identity][]result.Document, len(fetch))
	for _, f := range fetch {
		docs[f.Shard] = f.Documents
	}

	inputs := make([]reconcile.Input, 0, len(fetch))
	for _, o := range outputs {
		records, ok := docs[o.Shard]
		if !ok {
			continue
		}
		inputs = append(inputs, reconcile.Input{
			Output:        o,
			CacheEligible: eligible[o.Shard],
			Records:       records,
		})
	}
	return inputs
}
