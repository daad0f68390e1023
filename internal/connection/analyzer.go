// Package connection builds a query-oriented view over observed node
// connections: which types typically precede or follow a given type, and
// what usually feeds each of its inputs.
package connection

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/fernwell/nodeatlas/internal/graphdoc"
	"github.com/fernwell/nodeatlas/internal/knowledge"
)

// Triplet is one directed semantic edge between a specific output of one
// node type and a specific input of another. Frequency counts every
// observed occurrence, including repeats within a single document;
// Examples records each contributing document once, so Frequency >=
// len(Examples) always holds.
type Triplet struct {
	SourceType  string   `json:"source_type"`
	SourceParam string   `json:"source_param"`
	TargetType  string   `json:"target_type"`
	TargetParam string   `json:"target_param"`
	Frequency   int      `json:"frequency"`
	Examples    []string `json:"examples,omitempty"`
}

// Key returns the canonical pattern string identifying the triplet.
func (t *Triplet) Key() string {
	return knowledge.PatternKey(t.SourceType, t.SourceParam, t.TargetType, t.TargetParam)
}

func (t *Triplet) hasExample(docID string) bool {
	for _, id := range t.Examples {
		if id == docID {
			return true
		}
	}
	return false
}

// Analyzer accumulates triplets in first-seen order. Ordering is
// load-bearing: equal-frequency triplets rank by insertion order so
// repeated runs over the same corpus produce identical tables.
type Analyzer struct {
	triplets map[string]*Triplet
	order    []string // triplet keys, first-seen first
	logger   *slog.Logger
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		triplets: make(map[string]*Triplet),
		logger:   logger,
	}
}

// Len returns the number of distinct triplets recorded.
func (a *Analyzer) Len() int { return len(a.triplets) }

// Record upserts the triplet keyed by the 4-tuple. Frequency increments
// unconditionally; docID joins the example set only on first sight
// (idempotent per document). An empty docID contributes no example.
func (a *Analyzer) Record(sourceType, sourceParam, targetType, targetParam, docID string) {
	key := knowledge.PatternKey(sourceType, sourceParam, targetType, targetParam)
	t, ok := a.triplets[key]
	if !ok {
		t = &Triplet{
			SourceType:  sourceType,
			SourceParam: sourceParam,
			TargetType:  targetType,
			TargetParam: targetParam,
		}
		a.triplets[key] = t
		a.order = append(a.order, key)
	}
	t.Frequency++
	if docID != "" && !t.hasExample(docID) {
		t.Examples = append(t.Examples, docID)
	}
}

// RecordDocument records every resolvable edge of a document. Edges with
// missing endpoints are skipped with a diagnostic, mirroring the
// extractor's data-quality policy.
func (a *Analyzer) RecordDocument(doc *graphdoc.Document) {
	for _, edge := range doc.Edges {
		src := doc.NodeByInstance(edge.SourceInstance)
		tgt := doc.NodeByInstance(edge.TargetInstance)
		if src == nil || tgt == nil {
			if a.logger != nil {
				a.logger.Debug("analyzer: skipping unresolvable edge",
					slog.String("document", doc.ID),
					slog.String("source_instance", edge.SourceInstance),
					slog.String("target_instance", edge.TargetInstance))
			}
			continue
		}
		a.Record(src.Name, edge.SourceParam, tgt.Name, edge.TargetParam, doc.ID)
	}
}

// all returns the triplets in insertion order.
func (a *Analyzer) all() []*Triplet {
	out := make([]*Triplet, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.triplets[key])
	}
	return out
}

// TopTriplets returns at most n triplets by descending frequency. Ties
// keep first-seen order.
func (a *Analyzer) TopTriplets(n int) []*Triplet {
	out := a.all()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FilterBySubstring returns, in insertion order, every triplet whose
// source or target type name contains token (case-insensitive). Used to
// scope analysis to one plugin or type family.
func (a *Analyzer) FilterBySubstring(token string) []*Triplet {
	needle := strings.ToLower(token)
	var out []*Triplet
	for _, t := range a.all() {
		if strings.Contains(strings.ToLower(t.SourceType), needle) ||
			strings.Contains(strings.ToLower(t.TargetType), needle) {
			out = append(out, t)
		}
	}
	return out
}
