// Package paginate validates the global pagination offset over fused results.
package paginate

import (
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/domain"
)

// ExhaustedMessage is returned when the offset lies past the fused results.
const ExhaustedMessage = "Reached end of search result, increase pagination_depth value to see more results"

// Validate checks the offset against the total fused hit count of the whole
// coordinated request. Zero results are never an error.
func Validate(from, total int) error {
	if total == 0 {
		return nil
	}
	if from < 0 {
		return fmt.Errorf("%w: from must be non-negative, got %d", domain.ErrInvalidRequest, from)
	}
	if from >= total {
		return domain.NewFusionError(domain.KindPaginationExhausted, "%s", ExhaustedMessage)
	}
	return nil
}
