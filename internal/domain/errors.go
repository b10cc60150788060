package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a fusion request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidPipeline signals an invalid search pipeline definition.
	ErrInvalidPipeline = errors.New("invalid pipeline")

	// ErrWeightCountMismatch signals a weight vector whose length differs from the sub-query count.
	ErrWeightCountMismatch = errors.New("weight count mismatch")
	// ErrPaginationExhausted signals an offset past the end of the fused results.
	ErrPaginationExhausted = errors.New("pagination exhausted")
	// ErrUnreliableDocumentCorrelation signals fetch results that cannot be matched to scored hits safely.
	ErrUnreliableDocumentCorrelation = errors.New("unreliable document correlation")
	// ErrMalformedWireFormat signals a packed hit list that violates the marker layout.
	ErrMalformedWireFormat = errors.New("malformed wire format")
	// ErrInconsistentState signals an internal consistency violation between pipeline stages.
	ErrInconsistentState = errors.New("inconsistent state")
)

// ErrorKind discriminates fusion failures.
type ErrorKind string

// Fusion error kinds.
const (
	KindWeightCountMismatch           ErrorKind = "WeightCountMismatch"
	KindPaginationExhausted           ErrorKind = "PaginationExhausted"
	KindUnreliableDocumentCorrelation ErrorKind = "UnreliableDocumentCorrelation"
	KindMalformedWireFormat           ErrorKind = "MalformedWireFormat"
	KindInconsistentState             ErrorKind = "InconsistentState"
)

var kindSentinels = map[ErrorKind]error{
	KindWeightCountMismatch:           ErrWeightCountMismatch,
	KindPaginationExhausted:           ErrPaginationExhausted,
	KindUnreliableDocumentCorrelation: ErrUnreliableDocumentCorrelation,
	KindMalformedWireFormat:           ErrMalformedWireFormat,
	KindInconsistentState:             ErrInconsistentState,
}

// FusionError is a structured fusion failure carrying a kind discriminator
// and the human-readable message surfaced to the caller.
type FusionError struct {
	Kind    ErrorKind
	Message string
}

func (e *FusionError) Error() string { return e.Message }

// Unwrap returns the sentinel matching the error kind.
func (e *FusionError) Unwrap() error { return kindSentinels[e.Kind] }

// NewFusionError creates a fusion error with a formatted message.
func NewFusionError(kind ErrorKind, format string, args ...any) error {
	return &FusionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the fusion error kind from an error chain.
// Returns an empty kind when err is not a fusion error.
func KindOf(err error) ErrorKind {
	var fe *FusionError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
