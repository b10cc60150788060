package vecfuse

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	"github.com/kailas-cloud/vecfuse/internal/fusion/wire"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
)

// Pack builds a packed hit list from per-sub-query hits.
func Pack(subQueries [][]ScoredDoc) []Hit {
	sections := make([][]result.Hit, len(subQueries))
	for i, sq := range subQueries {
		sections[i] = make([]result.Hit, len(sq))
		for j, d := range sq {
			sections[i][j] = result.Hit{DocID: d.DocID, Score: d.Score}
		}
	}
	raw := wire.EncodeSections(sections)
	out := make([]Hit, len(raw))
	for i, r := range raw {
		out[i] = Hit{DocID: r.DocID, Score: r.Score}
	}
	return out
}

// Unpack splits a packed hit list into its sub-query hit lists.
func Unpack(hits []Hit) ([][]ScoredDoc, error) {
	sections, err := wire.Decode(toRaw(hits))
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}
	out := make([][]ScoredDoc, len(sections))
	for i, sec := range sections {
		out[i] = make([]ScoredDoc, len(sec))
		for j, h := range sec {
			out[i][j] = ScoredDoc{DocID: h.DocID, Score: h.Score}
		}
	}
	return out, nil
}

func toRaw(hits []Hit) []result.Raw {
	raw := make([]result.Raw, len(hits))
	for i, h := range hits {
		raw[i] = result.Raw{DocID: h.DocID, Score: h.Score}
	}
	return raw
}

func fromRaw(raw []result.Raw) []Hit {
	hits := make([]Hit, len(raw))
	for i, r := range raw {
		hits[i] = Hit{DocID: r.DocID, Score: r.Score}
	}
	return hits
}

func toShard(s ShardID) shard.Identity {
	return shard.Identity{Index: s.Index, Number: s.Number, IndexUUID: s.IndexUUID, ClusterAlias: s.ClusterAlias}
}

func fromShard(s shard.Identity) ShardID {
	return ShardID{Index: s.Index, Number: s.Number, IndexUUID: s.IndexUUID, ClusterAlias: s.ClusterAlias}
}

func toDocuments(docs []Document) []result.Document {
	out := make([]result.Document, len(docs))
	for i, d := range docs {
		out[i] = result.Document{DocID: d.DocID, Score: d.Score, ID: d.ID, Source: d.Source, Highlight: d.Highlight}
	}
	return out
}

func fromDocuments(docs []result.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{DocID: d.DocID, Score: d.Score, ID: d.ID, Source: d.Source, Highlight: d.Highlight}
	}
	return out
}

func parseTechniques(norm, comb string) (technique.Normalization, technique.Combination, error) {
	var (
		n   technique.Normalization
		c   technique.Combination
		err error
	)
	if norm != "" {
		if n, err = technique.ParseNormalization(norm); err != nil {
			return "", "", err
		}
	}
	if comb != "" {
		if c, err = technique.ParseCombination(comb); err != nil {
			return "", "", err
		}
	}
	return n, c, nil
}

func toRequest(in FuseInput, cfg fuseConfig) (request.Request, error) {
	shards := make([]request.ShardResult, len(in.Shards))
	for i, s := range in.Shards {
		shards[i] = request.ShardResult{Shard: toShard(s.Shard), Hits: toRaw(s.Hits), CacheEligible: s.CacheEligible}
	}

	var fetch []request.FetchSet
	if in.Fetch != nil {
		fetch = make([]request.FetchSet, len(*in.Fetch))
		for i, f := range *in.Fetch {
			fetch[i] = request.FetchSet{Shard: toShard(f.Shard), Documents: toDocuments(f.Documents)}
		}
	}

	norm, comb, err := parseTechniques(cfg.normalization, cfg.combination)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	inline := request.Techniques{
		Normalization: norm,
		RankConstant:  cfg.rankConstant,
		Combination:   comb,
		Weights:       cfg.weights,
	}

	req, err := request.New(shards, fetch, cfg.pipeline, inline, cfg.from, cfg.explain)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

func fromPipeline(p dompipe.Pipeline) PipelineInfo {
	info := PipelineInfo{
		Name:          p.Name(),
		Description:   p.Description(),
		Normalization: string(p.Normalization()),
		RankConstant:  p.RankConstant(),
		Combination:   string(p.Combination()),
		Weights:       p.Weights(),
	}
	if p.CreatedAt() > 0 {
		t := time.UnixMilli(p.CreatedAt()).UTC()
		info.CreatedAt = &t
	}
	return info
}

func fromResponse(resp *fusionuc.Response) FuseResult {
	out := FuseResult{
		InvocationID: resp.InvocationID,
		Pipeline:     fromPipeline(resp.Pipeline),
		SubQueries:   resp.SubQueries,
		Total:        resp.Total,
		MaxScore:     resp.MaxScore,
		Hits:         make([]FusedHit, len(resp.Hits)),
		Shards:       make([]ShardOutput, len(resp.Shards)),
	}
	for i, h := range resp.Hits {
		out.Hits[i] = FusedHit{Shard: fromShard(h.Doc.Shard), DocID: h.Doc.DocID, Score: h.Score}
	}
	for i, o := range resp.Shards {
		out.Shards[i] = ShardOutput{Shard: fromShard(o.Shard), Hits: fromRaw(o.Packed), MaxScore: o.MaxScore}
	}
	if resp.Fetch != nil {
		out.Fetch = make([]FetchOutput, len(resp.Fetch))
		for i, f := range resp.Fetch {
			out.Fetch[i] = FetchOutput{Shard: fromShard(f.Shard), Documents: fromDocuments(f.Records)}
		}
	}
	if resp.Explanations != nil {
		out.Explanations = make([]ShardExplanations, len(resp.Explanations))
		for i, st := range resp.Explanations {
			trails := make([]Explanation, len(st.Trails))
			for j, tr := range st.Trails {
				steps := make([]ExplanationStep, len(tr.Steps))
				for k, s := range tr.Steps {
					steps[k] = ExplanationStep{Value: s.Value, Description: s.Description}
				}
				trails[j] = Explanation{DocID: tr.DocID, Score: tr.Score, Steps: steps}
			}
			out.Explanations[i] = ShardExplanations{Shard: fromShard(st.Shard), Trails: trails}
		}
	}
	return out
}
