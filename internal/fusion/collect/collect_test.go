package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
)

var (
	s0 = shard.Identity{Index: "docs", Number: 0, IndexUUID: "u"}
	s1 = shard.Identity{Index: "docs", Number: 1, IndexUUID: "u"}
)

func TestCollect(t *testing.T) {
	shards := []Shard{
		{Identity: s0, SubQueries: [][]result.Hit{
			{{DocID: 1, Score: 1.0}, {DocID: 2, Score: 0.5}},
			{},
		}},
		{Identity: s1, SubQueries: [][]result.Hit{
			{{DocID: 1, Score: 0.7}},
			{{DocID: 9, Score: 3}},
		}},
	}

	tables, err := Collect(shards)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	require.Equal(t, 3, tables[0].Len())
	entries := tables[0].Entries()
	assert.Equal(t, shard.NewDocIdentity(1, s0), entries[0].Doc)
	assert.Equal(t, shard.NewDocIdentity(2, s0), entries[1].Doc)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, shard.NewDocIdentity(1, s1), entries[2].Doc)
	assert.Equal(t, 0, entries[2].Rank)

	score, ok := tables[1].Score(shard.NewDocIdentity(9, s1))
	require.True(t, ok)
	assert.InDelta(t, 3.0, score, 1e-9)
	_, ok = tables[1].Score(shard.NewDocIdentity(1, s0))
	assert.False(t, ok)
}

func TestCollect_NoShards(t *testing.T) {
	tables, err := Collect(nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestCollect_SubQueryCountMismatch(t *testing.T) {
	shards := []Shard{
		{Identity: s0, SubQueries: make([][]result.Hit, 2)},
		{Identity: s1, SubQueries: make([][]result.Hit, 3)},
	}
	_, err := Collect(shards)
	assert.ErrorIs(t, err, domain.ErrMalformedWireFormat)
}

func TestCollect_DuplicateDocInSection(t *testing.T) {
	shards := []Shard{
		{Identity: s0, SubQueries: [][]result.Hit{
			{{DocID: 1, Score: 0.9}, {DocID: 1, Score: 0.2}},
		}},
	}
	tables, err := Collect(shards)
	assert.Nil(t, tables)
	require.ErrorIs(t, err, domain.ErrMalformedWireFormat)
	assert.Contains(t, err.Error(), "more than once")
}

func TestCollect_SameDocAcrossShardsAndSubQueries(t *testing.T) {
	shards := []Shard{
		{Identity: s0, SubQueries: [][]result.Hit{{{DocID: 1, Score: 0.9}}, {{DocID: 1, Score: 0.4}}}},
		{Identity: s1, SubQueries: [][]result.Hit{{{DocID: 1, Score: 0.3}}, {}}},
	}
	tables, err := Collect(shards)
	require.NoError(t, err)
	assert.Equal(t, 2, tables[0].Len())
	assert.Equal(t, 1, tables[1].Len())
}

func TestScoreTable_AddKeepsFirst(t *testing.T) {
	tbl := NewScoreTable(2)
	doc := shard.NewDocIdentity(3, s0)
	assert.True(t, tbl.Add(Entry{Doc: doc, Score: 2}))
	assert.False(t, tbl.Add(Entry{Doc: doc, Score: 1}))
	score, _ := tbl.Score(doc)
	assert.InDelta(t, 2.0, score, 1e-9)
	assert.Equal(t, 1, tbl.Len())
}

func TestScoreTable_WithScores(t *testing.T) {
	tbl := NewScoreTable(2)
	tbl.Add(Entry{Doc: shard.NewDocIdentity(1, s0), Score: 2, Rank: 0})
	tbl.Add(Entry{Doc: shard.NewDocIdentity(2, s0), Score: 4, Rank: 1})

	doubled := tbl.WithScores(func(e Entry) float32 { return e.Score * 2 })
	require.Equal(t, 2, doubled.Len())
	assert.InDelta(t, 8.0, doubled.Entries()[1].Score, 1e-9)
	assert.Equal(t, 1, doubled.Entries()[1].Rank)
	assert.InDelta(t, 2.0, tbl.Entries()[0].Score, 1e-9)
}

func TestScoreTable_Nil(t *testing.T) {
	var tbl *ScoreTable
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Entries())
	_, ok := tbl.Score(shard.NewDocIdentity(1, s0))
	assert.False(t, ok)
}
