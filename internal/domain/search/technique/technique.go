package technique

import "fmt"

// Normalization is the score normalization technique applied per sub-query.
type Normalization string

// Normalization technique constants.
const (
	MinMax Normalization = "min_max"
	L2     Normalization = "l2"
	ZScore Normalization = "z_score"
	// RRF replaces scores by reciprocal rank, 1/(rank_constant + rank).
	RRF Normalization = "rrf"
)

// IsValid checks if the normalization is one of the supported values.
func (n Normalization) IsValid() bool {
	return n == MinMax || n == L2 || n == ZScore || n == RRF
}

// ParseNormalization resolves a technique name. Hyphenated aliases
// ("min-max", "z-score") are accepted.
func ParseNormalization(name string) (Normalization, error) {
	n := Normalization(name)
	switch name {
	case "min-max":
		n = MinMax
	case "z-score":
		n = ZScore
	}
	if !n.IsValid() {
		return "", fmt.Errorf("provided normalization technique [%s] is not supported", name)
	}
	return n, nil
}

// Combination is the technique that fuses normalized per-sub-query scores.
type Combination string

// Combination technique constants.
const (
	ArithmeticMean Combination = "arithmetic_mean"
	HarmonicMean   Combination = "harmonic_mean"
	GeometricMean  Combination = "geometric_mean"
	// Sum adds weighted scores; the usual pairing for RRF.
	Sum Combination = "sum"
)

// IsValid checks if the combination is one of the supported values.
func (c Combination) IsValid() bool {
	return c == ArithmeticMean || c == HarmonicMean || c == GeometricMean || c == Sum
}

// ParseCombination resolves a technique name.
func ParseCombination(name string) (Combination, error) {
	c := Combination(name)
	if !c.IsValid() {
		return "", fmt.Errorf("provided combination technique [%s] is not supported", name)
	}
	return c, nil
}

// Rank constant bounds for RRF.
const (
	DefaultRankConstant = 60
	MinRankConstant     = 1
	MaxRankConstant     = 10_000
)
