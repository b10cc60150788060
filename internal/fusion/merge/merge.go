// Package merge re-sorts every shard's hits by fused score and re-encodes them.
package merge

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
	"github.com/kailas-cloud/vecfuse/internal/fusion/combine"
	"github.com/kailas-cloud/vecfuse/internal/fusion/wire"
)

// Hit is a document with its fused score.
type Hit struct {
	Doc   shard.DocIdentity
	Score float32
}

// ShardOutput is one shard's fused, re-sorted result.
type ShardOutput struct {
	Shard shard.Identity
	// QueryOrder lists the shard's documents in query-phase encounter order
	// (sub-query order, then list order), de-duplicated.
	QueryOrder []shard.DocIdentity
	Hits       []Hit
	Packed     []result.Raw
	MaxScore   float32
}

// Compare orders hits by fused score descending, then by the shard
// identity tie-break.
func Compare(a, b Hit) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return shard.CompareTieBreak(a.Doc, b.Doc)
}

// Merge builds one output per shard. Each shard keeps at most as many hits as
// its longest sub-query list. Every shard document must have a fused score.
func Merge(shards []collect.Shard, fused *combine.Fused, subQueries int) ([]ShardOutput, error) {
	out := make([]ShardOutput, 0, len(shards))
	for _, s := range shards {
		var (
			order   []shard.DocIdentity
			seen    = make(map[int32]bool)
			longest int
		)
		for _, hits := range s.SubQueries {
			longest = max(longest, len(hits))
			for _, h := range hits {
				if seen[h.DocID] {
					continue
				}
				seen[h.DocID] = true
				order = append(order, shard.NewDocIdentity(h.DocID, s.Identity))
			}
		}

		hits := make([]Hit, 0, len(order))
		for _, doc := range order {
			score, ok := fused.Score(doc)
			if !ok {
				return nil, domain.NewFusionError(domain.KindInconsistentState,
					"document %s has no fused score", doc)
			}
			hits = append(hits, Hit{Doc: doc, Score: score})
		}
		slices.SortStableFunc(hits, Compare)
		if len(hits) > longest {
			hits = hits[:longest]
		}

		packed := make([]result.Hit, len(hits))
		for i, h := range hits {
			packed[i] = result.Hit{DocID: h.Doc.DocID, Score: h.Score}
		}
		var maxScore float32
		if len(hits) > 0 {
			maxScore = hits[0].Score
		}
		out = append(out, ShardOutput{
			Shard:      s.Identity,
			QueryOrder: order,
			Hits:       hits,
			Packed:     wire.Encode(packed, subQueries),
			MaxScore:   maxScore,
		})
	}
	return out, nil
}

// GlobalOrder merges all shard outputs into one list using Compare.
func GlobalOrder(outputs []ShardOutput) []Hit {
	var all []Hit
	for _, o := range outputs {
		all = append(all, o.Hits...)
	}
	slices.SortStableFunc(all, Compare)
	return all
}

// Total returns the number of fused hits across all shards.
func Total(outputs []ShardOutput) int {
	n := 0
	for _, o := range outputs {
		n += len(o.Hits)
	}
	return n
}
