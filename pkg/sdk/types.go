package vecfuse

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/fusion/wire"
)

// Packed-list markers. Every packed list is OPEN, then one DELIMITER per
// sub-query followed by that sub-query's hits, then CLOSE. OPEN and CLOSE
// share a doc id and are told apart by position.
const (
	BoundaryDocID  = wire.BoundaryDocID
	DelimiterDocID = wire.DelimiterDocID
	// UntrustedDocID marks a fetched document whose doc id was not preserved.
	UntrustedDocID int32 = -1
)

// ShardID identifies one shard execution.
type ShardID struct {
	Index        string `json:"index"`
	Number       int    `json:"shard"`
	IndexUUID    string `json:"index_uuid"`
	ClusterAlias string `json:"cluster_alias,omitempty"`
}

// Hit is one element of a packed hit list: a marker or a scored document.
type Hit struct {
	DocID int32   `json:"doc"`
	Score float32 `json:"score"`
}

// ScoredDoc is a real hit of one sub-query, used to build packed lists.
type ScoredDoc struct {
	DocID int32
	Score float32
}

// Document is a fetch-phase record.
type Document struct {
	DocID     int32               `json:"doc"`
	Score     float32             `json:"score"`
	ID        string              `json:"id,omitempty"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// ShardInput is one shard's packed query-phase output.
type ShardInput struct {
	Shard         ShardID `json:"shard"`
	Hits          []Hit   `json:"hits"`
	CacheEligible bool    `json:"cache_eligible"`
}

// FetchInput is one shard's fetch-phase output.
type FetchInput struct {
	Shard     ShardID    `json:"shard"`
	Documents []Document `json:"documents"`
}

// FuseInput is one coordinated hybrid query. A nil Fetch means no fetch
// phase happened; an empty non-nil Fetch means it produced nothing.
type FuseInput struct {
	Shards []ShardInput  `json:"shards"`
	Fetch  *[]FetchInput `json:"fetch,omitempty"`
}

// PipelineSpec is the user-supplied part of a pipeline. Empty techniques
// default to min_max and arithmetic_mean.
type PipelineSpec struct {
	Description   string    `json:"description,omitempty"`
	Normalization string    `json:"normalization,omitempty"`
	RankConstant  int       `json:"rank_constant,omitempty"`
	Combination   string    `json:"combination,omitempty"`
	Weights       []float32 `json:"weights,omitempty"`
}

// PipelineInfo is a stored or resolved pipeline.
type PipelineInfo struct {
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Normalization string     `json:"normalization"`
	RankConstant  int        `json:"rank_constant,omitempty"`
	Combination   string     `json:"combination"`
	Weights       []float32  `json:"weights,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// FusedHit is one entry of the global fused order.
type FusedHit struct {
	Shard ShardID `json:"shard"`
	DocID int32   `json:"doc"`
	Score float32 `json:"score"`
}

// ShardOutput is one shard's re-sorted packed list.
type ShardOutput struct {
	Shard    ShardID `json:"shard"`
	Hits     []Hit   `json:"hits"`
	MaxScore float32 `json:"max_score"`
}

// FetchOutput is one shard's fetched documents in fused order.
type FetchOutput struct {
	Shard     ShardID    `json:"shard"`
	Documents []Document `json:"documents"`
}

// ExplanationStep is one stage of a document's explanation trail.
type ExplanationStep struct {
	Value       float32 `json:"value"`
	Description string  `json:"description"`
}

// Explanation is the trail of one document.
type Explanation struct {
	DocID int32             `json:"doc"`
	Score float32           `json:"score"`
	Steps []ExplanationStep `json:"steps"`
}

// ShardExplanations groups trails of one shard in fused order.
type ShardExplanations struct {
	Shard  ShardID       `json:"shard"`
	Trails []Explanation `json:"trails"`
}

// FuseResult is the outcome of one Fuse call.
type FuseResult struct {
	InvocationID string              `json:"invocation_id"`
	Pipeline     PipelineInfo        `json:"pipeline"`
	SubQueries   int                 `json:"sub_queries"`
	Total        int                 `json:"total"`
	MaxScore     float32             `json:"max_score"`
	Hits         []FusedHit          `json:"hits"`
	Shards       []ShardOutput       `json:"shards"`
	Fetch        []FetchOutput       `json:"fetch,omitempty"`
	Explanations []ShardExplanations `json:"explanations,omitempty"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status    string            // "ok", "degraded"
	Checks    map[string]string // component → "ok"/"error"
	Pipelines int
}
