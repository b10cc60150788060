package request

import (
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

// Fusion request limits.
const (
	MaxShards       = 1024
	MaxHitsPerShard = 100_000
	// InlinePipelineName names the pipeline built from inline request techniques.
	InlinePipelineName = "_inline"
)

// ShardResult is one shard's packed query-phase output.
type ShardResult struct {
	Shard shard.Identity
	Hits  []result.Raw
	// CacheEligible reports that the shard search was served from a
	// deterministic, cacheable execution context.
	CacheEligible bool
}

// FetchSet is one shard's fetch-phase output.
type FetchSet struct {
	Shard     shard.Identity
	Documents []result.Document
}

// Techniques holds inline technique choices; empty fields mean "not set".
type Techniques struct {
	Normalization technique.Normalization
	RankConstant  int
	Combination   technique.Combination
	Weights       []float32
}

// IsEmpty reports whether no inline technique was supplied.
func (t Techniques) IsEmpty() bool {
	return t.Normalization == "" && t.RankConstant == 0 && t.Combination == "" && t.Weights == nil
}

// Request is a validated fusion invocation.
type Request struct {
	shards       []ShardResult
	fetch        []FetchSet
	hasFetch     bool
	pipelineName string
	inline       *pipeline.Pipeline
	from         int
	explain      bool
}

// New validates fusion parameters.
// pipelineName and inline techniques are mutually exclusive; when both are
// empty the service falls back to its configured default pipeline.
// A nil fetch slice means no fetch phase happened.
func New(
	shards []ShardResult,
	fetch []FetchSet,
	pipelineName string,
	inline Techniques,
	from int,
	explain bool,
) (Request, error) {
	if len(shards) > MaxShards {
		return Request{}, fmt.Errorf("too many shards (max %d)", MaxShards)
	}
	if from < 0 {
		return Request{}, fmt.Errorf("from must be non-negative, got %d", from)
	}

	seen := make(map[shard.Identity]bool, len(shards))
	for _, s := range shards {
		if seen[s.Shard] {
			return Request{}, fmt.Errorf("duplicate shard %s", s.Shard)
		}
		seen[s.Shard] = true
		if len(s.Hits) > MaxHitsPerShard {
			return Request{}, fmt.Errorf("too many hits for shard %s (max %d)", s.Shard, MaxHitsPerShard)
		}
	}

	fetched := make(map[shard.Identity]bool, len(fetch))
	for _, f := range fetch {
		if !seen[f.Shard] {
			return Request{}, fmt.Errorf("fetch set references unknown shard %s", f.Shard)
		}
		if fetched[f.Shard] {
			return Request{}, fmt.Errorf("duplicate fetch set for shard %s", f.Shard)
		}
		fetched[f.Shard] = true
	}

	r := Request{
		shards:       shards,
		fetch:        fetch,
		hasFetch:     fetch != nil,
		pipelineName: pipelineName,
		from:         from,
		explain:      explain,
	}

	if !inline.IsEmpty() {
		if pipelineName != "" {
			return Request{}, fmt.Errorf("pipeline and inline techniques are mutually exclusive")
		}
		p, err := pipeline.New(
			InlinePipelineName, "",
			inline.Normalization, inline.RankConstant,
			inline.Combination, inline.Weights, 0,
		)
		if err != nil {
			return Request{}, err
		}
		r.inline = &p
	}

	return r, nil
}

// Shards returns the per-shard packed hit lists.
func (r *Request) Shards() []ShardResult { return r.shards }

// Fetch returns the fetch-phase sets and whether a fetch phase happened.
func (r *Request) Fetch() ([]FetchSet, bool) { return r.fetch, r.hasFetch }

// PipelineName returns the named pipeline to resolve (empty if unset).
func (r *Request) PipelineName() string { return r.pipelineName }

// Inline returns the pipeline built from inline techniques, if any.
func (r *Request) Inline() (pipeline.Pipeline, bool) {
	if r.inline == nil {
		return pipeline.Pipeline{}, false
	}
	return *r.inline, true
}

// From returns the global pagination offset.
func (r *Request) From() int { return r.from }

// Explain reports whether explanation trails should be recorded.
func (r *Request) Explain() bool { return r.explain }
