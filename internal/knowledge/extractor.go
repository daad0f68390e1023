package knowledge

import (
	"log/slog"

	"github.com/fernwell/nodeatlas/internal/graphdoc"
)

// Extractor aggregates graph documents into a Registry and produces
// Export snapshots. Extraction is additive, not idempotent: feeding the
// same document twice doubles its usage and pattern counts.
type Extractor struct {
	reg    *Registry
	logger *slog.Logger
}

// NewExtractor creates an extractor over an empty registry.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{reg: NewRegistry(), logger: logger}
}

// Registry exposes the underlying registry (full, untruncated view).
func (e *Extractor) Registry() *Registry { return e.reg }

// ExtractDocument folds one document into the registry. Edges whose
// endpoints cannot be resolved by instance id are expected data-quality
// noise in partial captures: they are skipped with a diagnostic, never an
// error.
func (e *Extractor) ExtractDocument(doc *graphdoc.Document) {
	for _, n := range doc.Nodes {
		e.reg.ObserveNode(n)
	}

	for _, edge := range doc.Edges {
		src := doc.NodeByInstance(edge.SourceInstance)
		tgt := doc.NodeByInstance(edge.TargetInstance)
		if src == nil || tgt == nil {
			e.logger.Debug("extract: skipping unresolvable edge",
				slog.String("document", doc.ID),
				slog.String("source_instance", edge.SourceInstance),
				slog.String("target_instance", edge.TargetInstance))
			continue
		}
		e.reg.ObserveConnection(src, tgt, edge.SourceParam, edge.TargetParam)
	}
}

// Extract folds every document into the registry and returns a fresh
// export snapshot.
func (e *Extractor) Extract(docs []*graphdoc.Document) *Export {
	for _, doc := range docs {
		e.ExtractDocument(doc)
	}
	return e.reg.Export()
}
