// Package explain records per-document explanation trails of the fusion
// stages. A nil *Recorder is valid and records nothing, so callers do not
// branch on explain mode.
package explain

import (
	"fmt"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/shard"
	"github.com/kailas-cloud/vecfuse/internal/fusion/collect"
	"github.com/kailas-cloud/vecfuse/internal/fusion/combine"
	"github.com/kailas-cloud/vecfuse/internal/fusion/merge"
)

// Step is one explanation entry.
type Step struct {
	Value       float32 `json:"value"`
	Description string  `json:"description"`
}

// DocTrail is the trail of one document.
type DocTrail struct {
	Doc   shard.DocIdentity `json:"-"`
	Shard shard.Identity    `json:"shard"`
	DocID int32             `json:"doc"`
	Score float32           `json:"score"`
	Steps []Step            `json:"steps"`
}

// ShardTrails groups trails of one shard in fused order.
type ShardTrails struct {
	Shard  shard.Identity `json:"shard"`
	Trails []DocTrail     `json:"trails"`
}

// Recorder collects trails for one fusion invocation. Not safe for concurrent use.
type Recorder struct {
	trails map[shard.DocIdentity][]Step
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{trails: make(map[shard.DocIdentity][]Step)}
}

// RecordNormalization appends one step per sub-query hit, in sub-query order.
func (r *Recorder) RecordNormalization(tables []*collect.ScoreTable, technique string) {
	if r == nil {
		return
	}
	desc := fmt.Sprintf("%s normalization of:", technique)
	for _, t := range tables {
		for _, e := range t.Entries() {
			r.trails[e.Doc] = append(r.trails[e.Doc], Step{Value: e.Score, Description: desc})
		}
	}
}

// RecordCombination appends the combination step of every fused document.
func (r *Recorder) RecordCombination(f *combine.Fused, technique string) {
	if r == nil {
		return
	}
	desc := fmt.Sprintf("%s combination of:", technique)
	for _, doc := range f.Docs() {
		score, _ := f.Score(doc)
		r.trails[doc] = append(r.trails[doc], Step{Value: score, Description: desc})
	}
}

// Trails returns every recorded trail keyed by document.
func (r *Recorder) Trails() map[shard.DocIdentity][]Step {
	if r == nil {
		return nil
	}
	return r.trails
}

// Ordered returns trails following the given hit order.
func (r *Recorder) Ordered(hits []merge.Hit) []DocTrail {
	if r == nil {
		return nil
	}
	out := make([]DocTrail, 0, len(hits))
	for _, h := range hits {
		out = append(out, DocTrail{
			Doc:   h.Doc,
			Shard: h.Doc.Shard,
			DocID: h.Doc.DocID,
			Score: h.Score,
			Steps: r.trails[h.Doc],
		})
	}
	return out
}

// ByShard returns trails grouped per shard in each shard's fused order.
func (r *Recorder) ByShard(outputs []merge.ShardOutput) []ShardTrails {
	if r == nil {
		return nil
	}
	out := make([]ShardTrails, 0, len(outputs))
	for _, o := range outputs {
		out = append(out, ShardTrails{Shard: o.Shard, Trails: r.Ordered(o.Hits)})
	}
	return out
}
