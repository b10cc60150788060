package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

func TestNew_Defaults(t *testing.T) {
	p, err := New("hybrid", "", "", 0, "", nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Normalization() != technique.MinMax {
		t.Errorf("Normalization() = %q, want min_max", p.Normalization())
	}
	if p.Combination() != technique.ArithmeticMean {
		t.Errorf("Combination() = %q, want arithmetic_mean", p.Combination())
	}
	if p.Weights() != nil {
		t.Errorf("Weights() = %v, want nil", p.Weights())
	}
	if p.RankConstant() != 0 {
		t.Errorf("RankConstant() = %d, want 0", p.RankConstant())
	}
}

func TestNew_RRFDefaultsRankConstant(t *testing.T) {
	p, err := New("rrf", "", technique.RRF, 0, technique.Sum, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RankConstant() != technique.DefaultRankConstant {
		t.Errorf("RankConstant() = %d, want %d", p.RankConstant(), technique.DefaultRankConstant)
	}
}

func TestNew_CopiesWeights(t *testing.T) {
	w := []float32{0.4, 0.3, 0.3}
	p, err := New("weighted", "", technique.MinMax, 0, technique.ArithmeticMean, w, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w[0] = 9
	if p.Weights()[0] != 0.4 {
		t.Errorf("pipeline weights must not alias caller slice, got %v", p.Weights())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		pName   string
		norm    technique.Normalization
		rank    int
		comb    technique.Combination
		weights []float32
		wantErr string
	}{
		{"empty name", "", "", 0, "", nil, "name is required"},
		{"bad name", "a b", "", 0, "", nil, "alphanumeric"},
		{"long name", strings.Repeat("a", 65), "", 0, "", nil, "too long"},
		{"bad normalization", "p", "softmax", 0, "", nil, "normalization technique [softmax]"},
		{"bad combination", "p", "", 0, "median", nil, "combination technique [median]"},
		{"rank constant without rrf", "p", technique.L2, 10, "", nil, "only supported by the rrf"},
		{"rank constant too big", "p", technique.RRF, 10_001, "", nil, "between 1 and 10000"},
		{"negative rank constant", "p", technique.RRF, -1, "", nil, "between 1 and 10000"},
		{"negative weight", "p", "", 0, "", []float32{0.5, -0.1}, "non-negative"},
		{"nan weight", "p", "", 0, "", []float32{float32(math.NaN())}, "finite"},
		{"all zero weights", "p", "", 0, "", []float32{0, 0}, "at least one weight"},
		{"empty weights", "p", "", 0, "", []float32{}, "must not be empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.pName, "", tc.norm, tc.rank, tc.comb, tc.weights, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	p := Reconstruct("p", "desc", technique.ZScore, 0, technique.GeometricMean, []float32{1, 2}, 42)
	if p.Name() != "p" || p.Description() != "desc" || p.CreatedAt() != 42 {
		t.Errorf("unexpected pipeline %+v", p)
	}
	if len(p.Weights()) != 2 {
		t.Errorf("Weights() = %v", p.Weights())
	}
}
