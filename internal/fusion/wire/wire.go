// Package wire implements the packed per-shard hit list format exchanged
// between shards and the coordinator:
//
//	OPEN, DELIM, <hits of sub-query 0>, DELIM, <hits of sub-query 1>, ..., CLOSE
//
// Markers are encoded as reserved negative doc ids that can never collide
// with a real local doc id.
package wire

import (
	"math"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// Reserved doc ids of the marker elements. OPEN and CLOSE share one value.
const (
	BoundaryDocID  int32 = math.MinInt32
	DelimiterDocID int32 = math.MinInt32 + 1
)

// Kind discriminates packed list elements.
type Kind uint8

// Element kinds.
const (
	KindOpen Kind = iota + 1
	KindDelimiter
	KindClose
	KindHit
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindDelimiter:
		return "delimiter"
	case KindClose:
		return "close"
	case KindHit:
		return "hit"
	default:
		return "unknown"
	}
}

// Element is one decoded packed list element. Hit is set only for KindHit.
type Element struct {
	Kind Kind
	Hit  result.Hit
}

// IsMarker reports whether a doc id is one of the reserved marker ids.
func IsMarker(docID int32) bool {
	return docID == BoundaryDocID || docID == DelimiterDocID
}

// Tokenize classifies every raw element. A boundary id at position zero is
// an OPEN marker; anywhere else it is a CLOSE marker.
func Tokenize(raw []result.Raw) []Element {
	out := make([]Element, len(raw))
	for i, r := range raw {
		switch {
		case r.DocID == BoundaryDocID && i == 0:
			out[i] = Element{Kind: KindOpen}
		case r.DocID == BoundaryDocID:
			out[i] = Element{Kind: KindClose}
		case r.DocID == DelimiterDocID:
			out[i] = Element{Kind: KindDelimiter}
		default:
			out[i] = Element{Kind: KindHit, Hit: result.Hit{DocID: r.DocID, Score: r.Score}}
		}
	}
	return out
}

// Decode splits one shard's packed list into per-sub-query hit lists,
// ordered by sub-query index. Sections keep the shard-local order.
func Decode(raw []result.Raw) ([][]result.Hit, error) {
	elems := Tokenize(raw)
	if len(elems) == 0 || elems[0].Kind != KindOpen {
		return nil, malformed("packed hit list must start with an opening marker")
	}

	var delims []int
	closeAt := -1
	for i := 1; i < len(elems); i++ {
		e := elems[i]
		if closeAt >= 0 {
			return nil, malformed("element at position %d follows the closing marker", i)
		}
		switch e.Kind {
		case KindDelimiter:
			delims = append(delims, i)
		case KindClose:
			closeAt = i
		case KindHit:
			if len(delims) == 0 {
				return nil, malformed("hit at position %d precedes the first delimiter", i)
			}
			if e.Hit.DocID < 0 {
				return nil, malformed("hit at position %d has negative doc id %d", i, e.Hit.DocID)
			}
			if f := float64(e.Hit.Score); math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, malformed("hit at position %d has non-finite score %v", i, e.Hit.Score)
			}
		case KindOpen:
			return nil, malformed("unexpected opening marker at position %d", i)
		}
	}
	if closeAt < 0 {
		return nil, malformed("packed hit list is missing the closing marker")
	}
	if len(delims) == 0 {
		return nil, malformed("packed hit list has no sub-query delimiter")
	}

	sections := make([][]result.Hit, len(delims))
	for q, start := range delims {
		end := closeAt
		if q+1 < len(delims) {
			end = delims[q+1]
		}
		n := end - start - 1
		if n < 0 {
			return nil, malformed("negative hit count %d for sub-query %d", n, q)
		}
		hits := make([]result.Hit, 0, n)
		for _, e := range elems[start+1 : end] {
			hits = append(hits, e.Hit)
		}
		sections[q] = hits
	}
	return sections, nil
}

// Encode packs fused hits for a shard. All hits go into the first section;
// the remaining sections stay empty so the delimiter count still equals the
// sub-query count. A sub-query count below one is treated as one.
func Encode(hits []result.Hit, subQueries int) []result.Raw {
	if subQueries < 1 {
		subQueries = 1
	}
	out := make([]result.Raw, 0, len(hits)+subQueries+2)
	out = append(out, result.Raw{DocID: BoundaryDocID}, result.Raw{DocID: DelimiterDocID})
	for _, h := range hits {
		out = append(out, result.Raw{DocID: h.DocID, Score: h.Score})
	}
	for range subQueries - 1 {
		out = append(out, result.Raw{DocID: DelimiterDocID})
	}
	return append(out, result.Raw{DocID: BoundaryDocID})
}

// EncodeSections packs per-sub-query hit lists back into the wire layout.
func EncodeSections(sections [][]result.Hit) []result.Raw {
	size := 2
	for _, s := range sections {
		size += len(s) + 1
	}
	out := make([]result.Raw, 0, size)
	out = append(out, result.Raw{DocID: BoundaryDocID})
	for _, s := range sections {
		out = append(out, result.Raw{DocID: DelimiterDocID})
		for _, h := range s {
			out = append(out, result.Raw{DocID: h.DocID, Score: h.Score})
		}
	}
	return append(out, result.Raw{DocID: BoundaryDocID})
}

func malformed(format string, args ...any) error {
	return domain.NewFusionError(domain.KindMalformedWireFormat, format, args...)
}
