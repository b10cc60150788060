package pipeline

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"

	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

// pipelineToHash converts a domain Pipeline to a map for HSET.
func pipelineToHash(p dompipe.Pipeline) (map[string]string, error) {
	m := map[string]string{
		"name":          p.Name(),
		"description":   p.Description(),
		"normalization": string(p.Normalization()),
		"rank_constant": strconv.Itoa(p.RankConstant()),
		"combination":   string(p.Combination()),
		"created_at":    strconv.FormatInt(p.CreatedAt(), 10),
	}
	if p.Weights() != nil {
		weightsJSON, err := json.Marshal(p.Weights())
		if err != nil {
			return nil, fmt.Errorf("marshal weights: %w", err)
		}
		m["weights_json"] = string(weightsJSON)
	}
	return m, nil
}

// pipelineFromHash hydrates a domain Pipeline from an HGETALL result map.
func pipelineFromHash(m map[string]string) (dompipe.Pipeline, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return dompipe.Pipeline{}, fmt.Errorf("invalid created_at: %w", err)
	}

	rankConstant := 0
	if s := m["rank_constant"]; s != "" {
		if rankConstant, err = strconv.Atoi(s); err != nil {
			return dompipe.Pipeline{}, fmt.Errorf("invalid rank_constant: %w", err)
		}
	}

	var weights []float32
	if s, ok := m["weights_json"]; ok && s != "" {
		if err := json.Unmarshal([]byte(s), &weights); err != nil {
			return dompipe.Pipeline{}, fmt.Errorf("unmarshal weights: %w", err)
		}
	}

	return dompipe.Reconstruct(
		m["name"], m["description"],
		technique.Normalization(m["normalization"]), rankConstant,
		technique.Combination(m["combination"]), weights,
		createdAt,
	), nil
}
