// Package normalize brings one sub-query's scores onto a common scale.
// Statistics are computed over the whole table, across every shard.
package normalize

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
)

// Scores assigned on degenerate distributions.
const (
	SingleResultScore float32 = 1.0
	ZeroScore         float32 = 0.0
)

// Method is a resolved normalization technique with its parameters.
type Method struct {
	Technique    technique.Normalization
	RankConstant int
}

// NewMethod resolves a method. A zero rank constant falls back to the
// default for rrf and is ignored for the other techniques.
func NewMethod(t technique.Normalization, rankConstant int) (Method, error) {
	if !t.IsValid() {
		return Method{}, fmt.Errorf("provided normalization technique [%s] is not supported", t)
	}
	if t != technique.RRF {
		return Method{Technique: t}, nil
	}
	if rankConstant == 0 {
		rankConstant = technique.DefaultRankConstant
	}
	if rankConstant < technique.MinRankConstant || rankConstant > technique.MaxRankConstant {
		return Method{}, fmt.Errorf("rank constant must be in [%d, %d], got %d",
			technique.MinRankConstant, technique.MaxRankConstant, rankConstant)
	}
	return Method{Technique: t, RankConstant: rankConstant}, nil
}

// Describe renders the method for explanation trails.
func (m Method) Describe() string {
	if m.Technique == technique.RRF {
		return fmt.Sprintf("%s, rank_constant [%d]", m.Technique, m.RankConstant)
	}
	return string(m.Technique)
}

// Normalize returns a new table with normalized scores. The input is not modified.
func Normalize(t *collect.ScoreTable, m Method) *collect.ScoreTable {
	switch m.Technique {
	case technique.L2:
		return l2(t)
	case technique.ZScore:
		return zScore(t)
	case technique.RRF:
		return rrf(t, m.RankConstant)
	default:
		return minMax(t)
	}
}

func minMax(t *collect.ScoreTable) *collect.ScoreTable {
	if t.Len() == 0 {
		return collect.NewScoreTable(0)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range t.Entries() {
		s := float64(e.Score)
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	span := hi - lo
	return t.WithScores(func(e collect.Entry) float32 {
		if span == 0 {
			return SingleResultScore
		}
		return float32((float64(e.Score) - lo) / span)
	})
}

func l2(t *collect.ScoreTable) *collect.ScoreTable {
	var sum float64
	for _, e := range t.Entries() {
		s := float64(e.Score)
		sum += s * s
	}
	norm := math.Sqrt(sum)
	return t.WithScores(func(e collect.Entry) float32 {
		if norm == 0 {
			return ZeroScore
		}
		return float32(float64(e.Score) / norm)
	})
}

func zScore(t *collect.ScoreTable) *collect.ScoreTable {
	n := float64(t.Len())
	if n == 0 {
		return collect.NewScoreTable(0)
	}
	var sum float64
	for _, e := range t.Entries() {
		sum += float64(e.Score)
	}
	mean := sum / n
	var sq float64
	for _, e := range t.Entries() {
		d := float64(e.Score) - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / n)
	return t.WithScores(func(e collect.Entry) float32 {
		if stddev == 0 {
			return ZeroScore
		}
		return float32((float64(e.Score) - mean) / stddev)
	})
}

func rrf(t *collect.ScoreTable, k int) *collect.ScoreTable {
	return t.WithScores(func(e collect.Entry) float32 {
		return float32(1.0 / float64(k+e.Rank+1))
	})
}
