package pipeline

import (
	"fmt"
	"math"
	"regexp"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Pipeline is a named score-fusion pipeline definition (immutable value object).
// Technique names are resolved to enums once, when the pipeline is built.
type Pipeline struct {
	name          string
	description   string
	normalization technique.Normalization
	rankConstant  int
	combination   technique.Combination
	weights       []float32
	createdAt     int64
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("pipeline name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("pipeline name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// ValidateWeights checks that every weight is finite and non-negative and that
// at least one is positive. A nil slice is valid (uniform weights).
func ValidateWeights(weights []float32) error {
	if weights == nil {
		return nil
	}
	if len(weights) == 0 {
		return fmt.Errorf("weights must not be empty when provided")
	}
	positive := false
	for i, w := range weights {
		f := float64(w)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("weight at position %d is not a finite number", i)
		}
		if w < 0 {
			return fmt.Errorf("weight at position %d must be non-negative, got %v", i, w)
		}
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// New validates and creates a Pipeline.
// Empty techniques default to min_max + arithmetic_mean. A zero rank constant
// defaults to 60 and is only accepted together with rrf normalization.
func New(
	name, description string,
	norm technique.Normalization, rankConstant int,
	comb technique.Combination, weights []float32,
	createdAt int64,
) (Pipeline, error) {
	if err := validateName(name); err != nil {
		return Pipeline{}, err
	}
	if norm == "" {
		norm = technique.MinMax
	}
	if !norm.IsValid() {
		return Pipeline{}, fmt.Errorf("provided normalization technique [%s] is not supported", norm)
	}
	if comb == "" {
		comb = technique.ArithmeticMean
	}
	if !comb.IsValid() {
		return Pipeline{}, fmt.Errorf("provided combination technique [%s] is not supported", comb)
	}
	if rankConstant != 0 && norm != technique.RRF {
		return Pipeline{}, fmt.Errorf("rank_constant is only supported by the rrf normalization technique")
	}
	if norm == technique.RRF {
		if rankConstant == 0 {
			rankConstant = technique.DefaultRankConstant
		}
		if rankConstant < technique.MinRankConstant || rankConstant > technique.MaxRankConstant {
			return Pipeline{}, fmt.Errorf(
				"rank constant must be in the interval between %d and %d, submitted rank constant: %d",
				technique.MinRankConstant, technique.MaxRankConstant, rankConstant,
			)
		}
	}
	if err := ValidateWeights(weights); err != nil {
		return Pipeline{}, err
	}

	var w []float32
	if weights != nil {
		w = make([]float32, len(weights))
		copy(w, weights)
	}
	return Pipeline{
		name:          name,
		description:   description,
		normalization: norm,
		rankConstant:  rankConstant,
		combination:   comb,
		weights:       w,
		createdAt:     createdAt,
	}, nil
}

// Reconstruct hydrates a Pipeline from storage without validation.
func Reconstruct(
	name, description string,
	norm technique.Normalization, rankConstant int,
	comb technique.Combination, weights []float32,
	createdAt int64,
) Pipeline {
	return Pipeline{
		name:          name,
		description:   description,
		normalization: norm,
		rankConstant:  rankConstant,
		combination:   comb,
		weights:       weights,
		createdAt:     createdAt,
	}
}

// Name returns the pipeline name.
func (p Pipeline) Name() string { return p.name }

// Description returns the free-form description.
func (p Pipeline) Description() string { return p.description }

// Normalization returns the normalization technique.
func (p Pipeline) Normalization() technique.Normalization { return p.normalization }

// RankConstant returns the RRF rank constant (0 for other techniques).
func (p Pipeline) RankConstant() int { return p.rankConstant }

// Combination returns the combination technique.
func (p Pipeline) Combination() technique.Combination { return p.combination }

// Weights returns the per-sub-query weights, nil for uniform weighting.
func (p Pipeline) Weights() []float32 { return p.weights }

// CreatedAt returns the creation timestamp in unix milliseconds.
func (p Pipeline) CreatedAt() int64 { return p.createdAt }
