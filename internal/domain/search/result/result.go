package result

import "encoding/json"

// UntrustedDocID marks a fetched document whose local doc id was not
// preserved by the fetch phase.
const UntrustedDocID int32 = -1

// Hit is a real scored document of one shard-local hit list.
type Hit struct {
	DocID int32
	Score float32
}

// Raw is one element of a packed per-shard hit list: either a marker
// (out-of-range doc id) or a real hit.
type Raw struct {
	DocID int32   `json:"doc"`
	Score float32 `json:"score"`
}

// Document is a fetch-phase record: full document content for one hit.
type Document struct {
	DocID     int32               `json:"doc"`
	Score     float32             `json:"score"`
	ID        string              `json:"id,omitempty"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// IsTrusted reports whether the document carries a real local doc id.
func (d *Document) IsTrusted() bool { return d.DocID != UntrustedDocID }
