// Package reconcile aligns fetch-phase documents with fused query-phase hits.
package reconcile

import (
	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/fusion/merge"
)

// Input is one shard's fused output together with its fetched documents.
type Input struct {
	Output        merge.ShardOutput
	CacheEligible bool
	Records       []result.Document
}

// ShardRecords holds one shard's fetched documents in fused order, with
// fused scores and correlated doc ids.
type ShardRecords struct {
	Shard   shard.Identity
	Records []result.Document
}

// Reconcile correlates every shard independently.
//
// Records carrying the untrusted doc id are matched by position against the
// shard's query-phase order, which is only allowed for cache-eligible shard
// requests. Trusted records are matched by doc id and must cover the
// query-phase documents exactly.
func Reconcile(inputs []Input) ([]ShardRecords, error) {
	out := make([]ShardRecords, 0, len(inputs))
	for _, in := range inputs {
		byDoc, err := correlate(in)
		if err != nil {
			return nil, err
		}
		records := make([]result.Document, 0, len(in.Output.Hits))
		for _, h := range in.Output.Hits {
			rec, ok := byDoc[h.Doc.DocID]
			if !ok {
				continue
			}
			rec.DocID = h.Doc.DocID
			rec.Score = h.Score
			records = append(records, rec)
		}
		out = append(out, ShardRecords{Shard: in.Output.Shard, Records: records})
	}
	return out, nil
}

func correlate(in Input) (map[int32]result.Document, error) {
	order := in.Output.QueryOrder
	untrusted := false
	for i := range in.Records {
		if !in.Records[i].IsTrusted() {
			untrusted = true
			break
		}
	}

	byDoc := make(map[int32]result.Document, len(in.Records))
	if untrusted {
		if !in.CacheEligible {
			return nil, domain.NewFusionError(domain.KindUnreliableDocumentCorrelation,
				"cannot correlate fetch results of shard %s: fetched documents have no reliable doc id "+
					"and the shard request is not cache eligible", in.Output.Shard)
		}
		if len(in.Records) > len(order) {
			return nil, countMismatch(len(in.Records), len(order))
		}
		for i, rec := range in.Records {
			byDoc[order[i].DocID] = rec
		}
		return byDoc, nil
	}

	if len(in.Records) != len(order) {
		return nil, countMismatch(len(in.Records), len(order))
	}
	known := make(map[int32]bool, len(order))
	for _, d := range order {
		known[d.DocID] = true
	}
	for _, rec := range in.Records {
		if !known[rec.DocID] {
			return nil, domain.NewFusionError(domain.KindInconsistentState,
				"fetched document %d of shard %s was not part of the query phase", rec.DocID, in.Output.Shard)
		}
		if _, dup := byDoc[rec.DocID]; dup {
			return nil, domain.NewFusionError(domain.KindInconsistentState,
				"fetched document %d of shard %s appears more than once", rec.DocID, in.Output.Shard)
		}
		byDoc[rec.DocID] = rec
	}
	return byDoc, nil
}

func countMismatch(fetched, queried int) error {
	return domain.NewFusionError(domain.KindInconsistentState,
		"score normalization processor cannot produce final query result, the number of documents "+
			"after fetch phase [%d] is different from number of documents from query phase [%d]",
		fetched, queried)
}
