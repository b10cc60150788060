// Package collect gathers per-sub-query score tables across all shards.
package collect

import (
	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
)

// Shard is one shard's decoded query-phase output.
type Shard struct {
	Identity   shard.Identity
	SubQueries [][]result.Hit
}

// Entry is one document score inside a sub-query table.
// Rank is the position inside the shard-local sub-query list.
type Entry struct {
	Doc   shard.DocIdentity
	Score float32
	Rank  int
}

// ScoreTable maps document identities to scores for one sub-query.
// Entries keep insertion order so reductions over the table are reproducible.
type ScoreTable struct {
	entries []Entry
	index   map[shard.DocIdentity]int
}

// NewScoreTable creates an empty table.
func NewScoreTable(capacity int) *ScoreTable {
	return &ScoreTable{
		entries: make([]Entry, 0, capacity),
		index:   make(map[shard.DocIdentity]int, capacity),
	}
}

// Add inserts an entry. A document already present keeps its first score
// and Add reports false.
func (t *ScoreTable) Add(e Entry) bool {
	if _, ok := t.index[e.Doc]; ok {
		return false
	}
	t.index[e.Doc] = len(t.entries)
	t.entries = append(t.entries, e)
	return true
}

// Len returns the number of documents in the table.
func (t *ScoreTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the entries in insertion order. Callers must not modify it.
func (t *ScoreTable) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Score returns the score of a document.
func (t *ScoreTable) Score(doc shard.DocIdentity) (float32, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[doc]
	if !ok {
		return 0, false
	}
	return t.entries[i].Score, true
}

// WithScores returns a new table with the same keys, order and ranks, and
// scores replaced by fn.
func (t *ScoreTable) WithScores(fn func(Entry) float32) *ScoreTable {
	out := NewScoreTable(t.Len())
	for _, e := range t.Entries() {
		out.Add(Entry{Doc: e.Doc, Score: fn(e), Rank: e.Rank})
	}
	return out
}

// Collect builds one table per sub-query from every shard's hit lists, in
// shard order then list order. Empty sections contribute nothing. All shards
// must report the same number of sub-queries, and a doc may appear at most
// once per sub-query of a shard.
func Collect(shards []Shard) ([]*ScoreTable, error) {
	if len(shards) == 0 {
		return nil, nil
	}
	n := len(shards[0].SubQueries)
	capacity := make([]int, n)
	for _, s := range shards {
		if len(s.SubQueries) != n {
			return nil, domain.NewFusionError(domain.KindMalformedWireFormat,
				"shard %s reports %d sub-queries, expected %d", s.Identity, len(s.SubQueries), n)
		}
		for q, hits := range s.SubQueries {
			capacity[q] += len(hits)
		}
	}

	tables := make([]*ScoreTable, n)
	for q := range tables {
		tables[q] = NewScoreTable(capacity[q])
	}
	for _, s := range shards {
		for q, hits := range s.SubQueries {
			for rank, h := range hits {
				added := tables[q].Add(Entry{
					Doc:   shard.NewDocIdentity(h.DocID, s.Identity),
					Score: h.Score,
					Rank:  rank,
				})
				if !added {
					return nil, domain.NewFusionError(domain.KindMalformedWireFormat,
						"shard %s lists doc %d more than once in sub-query %d", s.Identity, h.DocID, q)
				}
			}
		}
	}
	return tables, nil
}
