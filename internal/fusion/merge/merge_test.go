package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
	"github.com/kailas-cloud/vecfuse/internal/fusion/combine"
	"github.com/kailas-cloud/vecfuse/internal/fusion/wire"
)

var (
	s0      = shard.Identity{Index: "docs", Number: 0, IndexUUID: "u"}
	s1      = shard.Identity{Index: "docs", Number: 1, IndexUUID: "u"}
	remote0 = shard.Identity{Index: "docs", Number: 0, IndexUUID: "r", ClusterAlias: "eu"}
)

// fuse runs collect and an unweighted arithmetic combination over raw scores.
func fuse(t *testing.T, shards []collect.Shard) *combine.Fused {
	t.Helper()
	tables, err := collect.Collect(shards)
	require.NoError(t, err)
	w, err := combine.ResolveWeights(nil, len(tables))
	require.NoError(t, err)
	f, err := combine.Combine(tables, technique.ArithmeticMean, w)
	require.NoError(t, err)
	return f
}

func docIDs(hits []Hit) []int32 {
	out := make([]int32, len(hits))
	for i, h := range hits {
		out[i] = h.Doc.DocID
	}
	return out
}

func TestMerge_SortsByFusedScore(t *testing.T) {
	shards := []collect.Shard{{Identity: s0, SubQueries: [][]result.Hit{
		{{DocID: 1, Score: 0.2}, {DocID: 2, Score: 0.1}},
		{{DocID: 2, Score: 0.9}, {DocID: 3, Score: 0.6}},
	}}}

	outs, err := Merge(shards, fuse(t, shards), 2)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	o := outs[0]
	assert.Equal(t, []int32{3, 2, 1}, docIDs(o.Hits))
	assert.InDelta(t, 0.6, o.MaxScore, 1e-6)
	assert.Equal(t, []shard.DocIdentity{
		shard.NewDocIdentity(1, s0), shard.NewDocIdentity(2, s0), shard.NewDocIdentity(3, s0),
	}, o.QueryOrder)

	sections, err := wire.Decode(o.Packed)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Len(t, sections[0], 3)
	assert.Empty(t, sections[1])
}

func TestMerge_TruncatesToLongestSubQuery(t *testing.T) {
	shards := []collect.Shard{{Identity: s0, SubQueries: [][]result.Hit{
		{{DocID: 1, Score: 0.9}, {DocID: 2, Score: 0.8}},
		{{DocID: 3, Score: 0.95}, {DocID: 4, Score: 0.1}},
	}}}
	outs, err := Merge(shards, fuse(t, shards), 2)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 1}, docIDs(outs[0].Hits))
}

func TestMerge_TieBreaks(t *testing.T) {
	shards := []collect.Shard{
		{Identity: s1, SubQueries: [][]result.Hit{{{DocID: 0, Score: 1}}}},
		{Identity: remote0, SubQueries: [][]result.Hit{{{DocID: 5, Score: 1}}}},
		{Identity: s0, SubQueries: [][]result.Hit{{{DocID: 7, Score: 1}, {DocID: 2, Score: 1}}}},
	}
	outs, err := Merge(shards, fuse(t, shards), 1)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 7}, docIDs(outs[2].Hits))

	global := GlobalOrder(outs)
	want := []shard.DocIdentity{
		shard.NewDocIdentity(2, s0),
		shard.NewDocIdentity(7, s0),
		shard.NewDocIdentity(5, remote0),
		shard.NewDocIdentity(0, s1),
	}
	got := make([]shard.DocIdentity, len(global))
	for i, h := range global {
		got[i] = h.Doc
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 4, Total(outs))
}

func TestMerge_Reproducible(t *testing.T) {
	shards := []collect.Shard{
		{Identity: s0, SubQueries: [][]result.Hit{{{DocID: 3, Score: 0.5}, {DocID: 1, Score: 0.5}}}},
		{Identity: s1, SubQueries: [][]result.Hit{{{DocID: 2, Score: 0.5}}}},
	}
	first, err := Merge(shards, fuse(t, shards), 1)
	require.NoError(t, err)
	for range 20 {
		again, err := Merge(shards, fuse(t, shards), 1)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMerge_NonIncreasing(t *testing.T) {
	shards := []collect.Shard{
		{Identity: s0, SubQueries: [][]result.Hit{
			{{DocID: 1, Score: 3}, {DocID: 2, Score: 2}, {DocID: 3, Score: 1}},
			{{DocID: 3, Score: 9}, {DocID: 4, Score: 0.1}},
		}},
		{Identity: s1, SubQueries: [][]result.Hit{{}, {{DocID: 8, Score: 4}}}},
	}
	outs, err := Merge(shards, fuse(t, shards), 2)
	require.NoError(t, err)
	for _, o := range outs {
		for i := 1; i < len(o.Hits); i++ {
			assert.LessOrEqual(t, o.Hits[i].Score, o.Hits[i-1].Score)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	shards := []collect.Shard{{Identity: s0, SubQueries: [][]result.Hit{{}, {}}}}
	outs, err := Merge(shards, fuse(t, shards), 2)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Empty(t, outs[0].Hits)
	assert.Equal(t, float32(0), outs[0].MaxScore)
	assert.Equal(t, wire.Encode(nil, 2), outs[0].Packed)
	assert.Empty(t, GlobalOrder(outs))
}

func TestMerge_MissingFusedScore(t *testing.T) {
	shards := []collect.Shard{{Identity: s0, SubQueries: [][]result.Hit{{{DocID: 1, Score: 1}}}}}
	empty, err := combine.Combine(nil, technique.ArithmeticMean, nil)
	require.NoError(t, err)
	_, err = Merge(shards, empty, 1)
	assert.ErrorIs(t, err, domain.ErrInconsistentState)
}
