package vecfuse

import "github.com/kailas-cloud/vecfuse/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                      = domain.ErrNotFound
	ErrInvalidRequest                = domain.ErrInvalidRequest
	ErrInvalidPipeline               = domain.ErrInvalidPipeline
	ErrWeightCountMismatch           = domain.ErrWeightCountMismatch
	ErrPaginationExhausted           = domain.ErrPaginationExhausted
	ErrUnreliableDocumentCorrelation = domain.ErrUnreliableDocumentCorrelation
	ErrMalformedWireFormat           = domain.ErrMalformedWireFormat
	ErrInconsistentState             = domain.ErrInconsistentState
)

// ErrorKind returns the fusion error kind of err ("WeightCountMismatch", ...),
// or "" when err is not a fusion error.
func ErrorKind(err error) string {
	return string(domain.KindOf(err))
}
