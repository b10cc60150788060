// Package combine fuses normalized per-sub-query scores into one score per document.
package combine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
)

// ResolveWeights turns optional weights into a concrete vector with one
// weight per sub-query. Nil weights resolve to uniform 1/N.
func ResolveWeights(weights []float32, subQueries int) ([]float32, error) {
	if weights == nil {
		out := make([]float32, subQueries)
		for i := range out {
			out[i] = 1 / float32(subQueries)
		}
		return out, nil
	}
	if len(weights) != subQueries {
		return nil, domain.NewFusionError(domain.KindWeightCountMismatch,
			"number of weights [%d] must match number of sub-queries [%d] in hybrid query",
			len(weights), subQueries)
	}
	if err := pipeline.ValidateWeights(weights); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	out := make([]float32, len(weights))
	copy(out, weights)
	return out, nil
}

// Fused holds one fused score per document, in first-seen order
// (sub-query order, then table order).
type Fused struct {
	docs   []shard.DocIdentity
	scores map[shard.DocIdentity]float32
}

// Len returns the number of fused documents.
func (f *Fused) Len() int {
	if f == nil {
		return 0
	}
	return len(f.docs)
}

// Docs returns the fused documents in first-seen order.
func (f *Fused) Docs() []shard.DocIdentity {
	if f == nil {
		return nil
	}
	return f.docs
}

// Score returns the fused score of a document.
func (f *Fused) Score(doc shard.DocIdentity) (float32, bool) {
	if f == nil {
		return 0, false
	}
	s, ok := f.scores[doc]
	return s, ok
}

type term struct {
	weight float64
	score  float64
}

// Combine reduces every document present in at least one table. Weights are
// positional by sub-query and must already be resolved to len(tables).
// Only the sub-queries a document matched take part in its reduction.
func Combine(tables []*collect.ScoreTable, c technique.Combination, weights []float32) (*Fused, error) {
	if len(weights) != len(tables) {
		return nil, domain.NewFusionError(domain.KindWeightCountMismatch,
			"number of weights [%d] must match number of sub-queries [%d] in hybrid query",
			len(weights), len(tables))
	}

	var order []shard.DocIdentity
	terms := make(map[shard.DocIdentity][]term)
	for q, t := range tables {
		for _, e := range t.Entries() {
			ts, seen := terms[e.Doc]
			if !seen {
				order = append(order, e.Doc)
			}
			terms[e.Doc] = append(ts, term{weight: float64(weights[q]), score: float64(e.Score)})
		}
	}

	reduce := reducer(c)
	f := &Fused{docs: order, scores: make(map[shard.DocIdentity]float32, len(order))}
	for _, doc := range order {
		f.scores[doc] = float32(reduce(terms[doc]))
	}
	return f, nil
}

func reducer(c technique.Combination) func([]term) float64 {
	switch c {
	case technique.HarmonicMean:
		return harmonicMean
	case technique.GeometricMean:
		return geometricMean
	case technique.Sum:
		return sum
	default:
		return arithmeticMean
	}
}

func arithmeticMean(ts []term) float64 {
	var num, den float64
	for _, t := range ts {
		num += t.weight * t.score
		den += t.weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// harmonicMean treats any zero or negative score as a hard zero for the whole document.
func harmonicMean(ts []term) float64 {
	var num, den float64
	for _, t := range ts {
		if t.score <= 0 {
			return 0
		}
		num += t.weight
		den += t.weight / t.score
	}
	if num == 0 || den == 0 {
		return 0
	}
	return num / den
}

// geometricMean treats any zero or negative score as a hard zero.
func geometricMean(ts []term) float64 {
	var num, den float64
	for _, t := range ts {
		if t.score <= 0 {
			return 0
		}
		num += t.weight * math.Log(t.score)
		den += t.weight
	}
	if den == 0 {
		return 0
	}
	return math.Exp(num / den)
}

func sum(ts []term) float64 {
	var s float64
	for _, t := range ts {
		s += t.weight * t.score
	}
	return s
}

// Describe renders the combination with its weights for explanation trails.
func Describe(c technique.Combination, weights []float32) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = strconv.FormatFloat(float64(w), 'f', -1, 32)
	}
	return fmt.Sprintf("%s, weights [%s]", c, strings.Join(parts, ", "))
}
