package combine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
)

var (
	s0 = shard.Identity{Index: "docs", Number: 0, IndexUUID: "u"}
	a  = shard.NewDocIdentity(1, s0)
	b  = shard.NewDocIdentity(2, s0)
	c  = shard.NewDocIdentity(3, s0)

	allTechniques = []technique.Combination{
		technique.ArithmeticMean, technique.HarmonicMean, technique.GeometricMean, technique.Sum,
	}
)

// tbl builds a table from doc/score pairs.
func tbl(pairs map[shard.DocIdentity]float32, order ...shard.DocIdentity) *collect.ScoreTable {
	t := collect.NewScoreTable(len(order))
	for i, d := range order {
		t.Add(collect.Entry{Doc: d, Score: pairs[d], Rank: i})
	}
	return t
}

func fused(t *testing.T, f *Fused, d shard.DocIdentity) float32 {
	t.Helper()
	s, ok := f.Score(d)
	require.True(t, ok, "missing %s", d)
	return s
}

func TestResolveWeights(t *testing.T) {
	w, err := ResolveWeights(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, w)

	in := []float32{0.7, 0.3}
	w, err = ResolveWeights(in, 2)
	require.NoError(t, err)
	assert.Equal(t, in, w)
	w[0] = 1
	assert.InDelta(t, 0.7, in[0], 1e-6)

	_, err = ResolveWeights([]float32{0.5, -0.5}, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResolveWeights_CountMismatch(t *testing.T) {
	_, err := ResolveWeights([]float32{1}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWeightCountMismatch)
	assert.Equal(t, "number of weights [1] must match number of sub-queries [3] in hybrid query", err.Error())
}

func TestCombine_CountMismatchForEveryTechnique(t *testing.T) {
	tables := []*collect.ScoreTable{collect.NewScoreTable(0), collect.NewScoreTable(0), collect.NewScoreTable(0)}
	for _, tech := range allTechniques {
		_, err := Combine(tables, tech, []float32{1})
		assert.ErrorIs(t, err, domain.ErrWeightCountMismatch, tech)
	}
}

func TestCombine_SingleSubQueryRoundTrip(t *testing.T) {
	table := tbl(map[shard.DocIdentity]float32{a: 0.8, b: 0.25, c: 1}, a, b, c)
	w, err := ResolveWeights(nil, 1)
	require.NoError(t, err)
	for _, tech := range []technique.Combination{technique.ArithmeticMean, technique.HarmonicMean, technique.GeometricMean} {
		f, err := Combine([]*collect.ScoreTable{table}, tech, w)
		require.NoError(t, err)
		assert.InDelta(t, 0.8, fused(t, f, a), 1e-6, tech)
		assert.InDelta(t, 0.25, fused(t, f, b), 1e-6, tech)
		assert.InDelta(t, 1.0, fused(t, f, c), 1e-6, tech)
	}
}

func TestCombine_Formulas(t *testing.T) {
	t0 := tbl(map[shard.DocIdentity]float32{a: 0.8}, a)
	t1 := tbl(map[shard.DocIdentity]float32{a: 0.2}, a)
	tables := []*collect.ScoreTable{t0, t1}
	weights := []float32{0.6, 0.4}

	tests := []struct {
		tech technique.Combination
		want float64
	}{
		{technique.ArithmeticMean, 0.6*0.8 + 0.4*0.2},
		{technique.HarmonicMean, 1 / (0.6/0.8 + 0.4/0.2)},
		{technique.GeometricMean, math.Exp(0.6*math.Log(0.8) + 0.4*math.Log(0.2))},
		{technique.Sum, 0.6*0.8 + 0.4*0.2},
	}
	for _, tc := range tests {
		t.Run(string(tc.tech), func(t *testing.T) {
			f, err := Combine(tables, tc.tech, weights)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, fused(t, f, a), 1e-5)
		})
	}
}

func TestCombine_OnlyMatchedSubQueriesCount(t *testing.T) {
	// a matches sub-queries 0 and 2 only: weights 0.5 and 0.2 are renormalized.
	t0 := tbl(map[shard.DocIdentity]float32{a: 1.0}, a)
	t1 := tbl(map[shard.DocIdentity]float32{b: 1.0}, b)
	t2 := tbl(map[shard.DocIdentity]float32{a: 0.3}, a)
	f, err := Combine([]*collect.ScoreTable{t0, t1, t2}, technique.ArithmeticMean, []float32{0.5, 0.3, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, (0.5*1.0+0.2*0.3)/0.7, fused(t, f, a), 1e-6)
	assert.InDelta(t, 1.0, fused(t, f, b), 1e-6)
	assert.Equal(t, []shard.DocIdentity{a, b}, f.Docs())
}

func TestCombine_ZeroAndNegativeScores(t *testing.T) {
	t0 := tbl(map[shard.DocIdentity]float32{a: 0, b: -0.5}, a, b)
	t1 := tbl(map[shard.DocIdentity]float32{a: 0.9, b: 0.9}, a, b)
	tables := []*collect.ScoreTable{t0, t1}
	w := []float32{0.5, 0.5}

	f, err := Combine(tables, technique.HarmonicMean, w)
	require.NoError(t, err)
	assert.Equal(t, float32(0), fused(t, f, a))
	assert.Equal(t, float32(0), fused(t, f, b))

	f, err = Combine(tables, technique.GeometricMean, w)
	require.NoError(t, err)
	assert.Equal(t, float32(0), fused(t, f, a))
	assert.Equal(t, float32(0), fused(t, f, b))
}

func TestCombine_HarmonicNegativeScores(t *testing.T) {
	t0 := tbl(map[shard.DocIdentity]float32{a: -0.5, b: -1.2}, a, b)
	t1 := tbl(map[shard.DocIdentity]float32{a: 0.9, b: 1.2}, a, b)

	f, err := Combine([]*collect.ScoreTable{t0, t1}, technique.HarmonicMean, []float32{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, float32(0), fused(t, f, a))
	assert.Equal(t, float32(0), fused(t, f, b))
}

func TestCombine_ZeroWeightSum(t *testing.T) {
	t0 := tbl(map[shard.DocIdentity]float32{a: 0.9}, a)
	t1 := tbl(map[shard.DocIdentity]float32{b: 0.9}, b)
	for _, tech := range allTechniques {
		f, err := Combine([]*collect.ScoreTable{t0, t1}, tech, []float32{0, 1})
		require.NoError(t, err)
		assert.Equal(t, float32(0), fused(t, f, a), tech)
	}
}

func TestCombine_Empty(t *testing.T) {
	f, err := Combine(nil, technique.ArithmeticMean, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Docs())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "arithmetic_mean, weights [0.4, 0.3, 0.3]",
		Describe(technique.ArithmeticMean, []float32{0.4, 0.3, 0.3}))
	assert.Equal(t, "sum, weights [1]", Describe(technique.Sum, []float32{1}))
}
