package chi

import (
	"time"

	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/fusion/explain"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest                    = "bad_request"
	CodeValidationFailed              = "validation_failed"
	CodeUnauthorized                  = "unauthorized"
	CodePipelineNotFound              = "pipeline_not_found"
	CodeInvalidPipeline               = "invalid_pipeline"
	CodeRateLimited                   = "rate_limited"
	CodeWeightCountMismatch           = "weight_count_mismatch"
	CodePaginationExhausted           = "pagination_exhausted"
	CodeMalformedWireFormat           = "malformed_wire_format"
	CodeUnreliableDocumentCorrelation = "unreliable_document_correlation"
	CodeInconsistentState             = "inconsistent_state"
	CodeInternalError                 = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ShardResultBody is one shard's packed query-phase hit list.
type ShardResultBody struct {
	Shard         shard.Identity `json:"shard"`
	Hits          []result.Raw   `json:"hits"`
	CacheEligible bool           `json:"cache_eligible"`
}

// FetchSetBody is one shard's fetch-phase documents.
type FetchSetBody struct {
	Shard     shard.Identity    `json:"shard"`
	Documents []result.Document `json:"documents"`
}

// FuseRequest is the body of POST /fuse.
type FuseRequest struct {
	Shards        []ShardResultBody `json:"shards"`
	Fetch         *[]FetchSetBody   `json:"fetch,omitempty"`
	Pipeline      string            `json:"pipeline,omitempty"`
	Normalization string            `json:"normalization,omitempty"`
	RankConstant  int               `json:"rank_constant,omitempty"`
	Combination   string            `json:"combination,omitempty"`
	Weights       []float32         `json:"weights,omitempty"`
	From          int               `json:"from"`
	Explain       bool              `json:"explain,omitempty"`
}

// FusedHit is one entry of the global fused order.
type FusedHit struct {
	Shard shard.Identity `json:"shard"`
	DocID int32          `json:"doc"`
	Score float32        `json:"score"`
}

// ShardOutputBody is one shard's re-sorted, re-packed result.
type ShardOutputBody struct {
	Shard    shard.Identity `json:"shard"`
	Hits     []result.Raw   `json:"hits"`
	MaxScore float32        `json:"max_score"`
}

// FuseResponse is the body of a successful POST /fuse.
type FuseResponse struct {
	InvocationID string                `json:"invocation_id"`
	Pipeline     Pipeline              `json:"pipeline"`
	SubQueries   int                   `json:"sub_queries"`
	Total        int                   `json:"total"`
	MaxScore     float32               `json:"max_score"`
	Hits         []FusedHit            `json:"hits"`
	Shards       []ShardOutputBody     `json:"shards"`
	Fetch        []FetchSetBody        `json:"fetch,omitempty"`
	Explanations []explain.ShardTrails `json:"explanations,omitempty"`
}

// PipelineRequest is the body of PUT /pipelines/{name}.
type PipelineRequest struct {
	Description   string    `json:"description,omitempty"`
	Normalization string    `json:"normalization,omitempty"`
	RankConstant  int       `json:"rank_constant,omitempty"`
	Combination   string    `json:"combination,omitempty"`
	Weights       []float32 `json:"weights,omitempty"`
}

// Pipeline is the wire representation of a search pipeline.
type Pipeline struct {
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Normalization string     `json:"normalization"`
	RankConstant  int        `json:"rank_constant,omitempty"`
	Combination   string     `json:"combination"`
	Weights       []float32  `json:"weights,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// PipelineList is the body of GET /pipelines.
type PipelineList struct {
	Items []Pipeline `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Pipelines int               `json:"pipelines"`
	Version   string            `json:"version"`
}

func pipelineToBody(p dompipe.Pipeline) Pipeline {
	out := Pipeline{
		Name:          p.Name(),
		Description:   p.Description(),
		Normalization: string(p.Normalization()),
		RankConstant:  p.RankConstant(),
		Combination:   string(p.Combination()),
		Weights:       p.Weights(),
	}
	if p.CreatedAt() > 0 {
		t := time.UnixMilli(p.CreatedAt()).UTC()
		out.CreatedAt = &t
	}
	return out
}

// NewFuseResponse converts a fusion result to its wire form.
func NewFuseResponse(resp *fusionuc.Response) FuseResponse {
	out := FuseResponse{
		InvocationID: resp.InvocationID,
		Pipeline:     pipelineToBody(resp.Pipeline),
		SubQueries:   resp.SubQueries,
		Total:        resp.Total,
		MaxScore:     resp.MaxScore,
		Hits:         make([]FusedHit, len(resp.Hits)),
		Shards:       make([]ShardOutputBody, len(resp.Shards)),
		Explanations: resp.Explanations,
	}
	for i, h := range resp.Hits {
		out.Hits[i] = FusedHit{Shard: h.Doc.Shard, DocID: h.Doc.DocID, Score: h.Score}
	}
	for i, o := range resp.Shards {
		out.Shards[i] = ShardOutputBody{Shard: o.Shard, Hits: o.Packed, MaxScore: o.MaxScore}
	}
	if resp.Fetch != nil {
		out.Fetch = make([]FetchSetBody, len(resp.Fetch))
		for i, f := range resp.Fetch {
			out.Fetch[i] = FetchSetBody{Shard: f.Shard, Documents: f.Records}
		}
	}
	return out
}
