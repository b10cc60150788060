package shard

import (
	"cmp"
	"fmt"
)

// Identity identifies one shard execution of a coordinated query.
type Identity struct {
	Index        string `json:"index"`
	Number       int    `json:"shard"`
	IndexUUID    string `json:"index_uuid"`
	ClusterAlias string `json:"cluster_alias,omitempty"`
}

// String renders the identity as [index][shard].
func (s Identity) String() string {
	if s.ClusterAlias != "" {
		return fmt.Sprintf("[%s:%s][%d]", s.ClusterAlias, s.Index, s.Number)
	}
	return fmt.Sprintf("[%s][%d]", s.Index, s.Number)
}

// DocIdentity identifies a document within one coordinated query.
// The local doc id is meaningful only together with its shard and must
// never outlive the request that produced it.
type DocIdentity struct {
	DocID int32
	Shard Identity
}

// NewDocIdentity creates a document identity.
func NewDocIdentity(docID int32, s Identity) DocIdentity {
	return DocIdentity{DocID: docID, Shard: s}
}

// String renders the identity as [index][shard]#doc.
func (d DocIdentity) String() string {
	return fmt.Sprintf("%s#%d", d.Shard, d.DocID)
}

// CompareTieBreak orders identities by shard number, then cluster alias
// (empty alias first), then local doc id. Used only when fused scores are equal.
func CompareTieBreak(a, b DocIdentity) int {
	if c := cmp.Compare(a.Shard.Number, b.Shard.Number); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Shard.ClusterAlias, b.Shard.ClusterAlias); c != 0 {
		return c
	}
	return cmp.Compare(a.DocID, b.DocID)
}
