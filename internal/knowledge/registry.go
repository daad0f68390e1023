// Package knowledge builds and persists the node-type knowledge registry:
// which node types exist in a corpus of graph documents, how their ports
// are named, and which types are typically wired together.
package knowledge

import (
	"fmt"

	"github.com/fernwell/nodeatlas/internal/graphdoc"
)

// TypeKnowledge accumulates everything observed about one node type,
// keyed by its authoritative type identifier (GUID).
//
// Counts only grow and sets are never emptied; removing a document from
// the corpus does not subtract what it taught.
type TypeKnowledge struct {
	GUID          string     `json:"guid"`
	Names         StringSet  `json:"names"`
	Nicknames     StringSet  `json:"nicknames,omitempty"`
	Inputs        ParamNames `json:"inputs,omitempty"`
	Outputs       ParamNames `json:"outputs,omitempty"`
	UsageCount    int        `json:"usage_count"`
	ConnectedTo   FreqMap    `json:"connected_to,omitempty"`
	ConnectedFrom FreqMap    `json:"connected_from,omitempty"`
}

func newTypeKnowledge(guid string) *TypeKnowledge {
	return &TypeKnowledge{
		GUID:          guid,
		Names:         NewStringSet(),
		Nicknames:     NewStringSet(),
		Inputs:        make(ParamNames),
		Outputs:       make(ParamNames),
		ConnectedTo:   make(FreqMap),
		ConnectedFrom: make(FreqMap),
	}
}

// Registry is the full in-memory knowledge store. Unlike the export view,
// it keeps complete connection maps and the untruncated pattern table.
type Registry struct {
	types    map[string]*TypeKnowledge
	patterns FreqMap // "SourceGUID.Out -> TargetGUID.In" -> occurrences
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*TypeKnowledge),
		patterns: make(FreqMap),
	}
}

// Type returns the knowledge entry for guid, or nil if never observed.
func (r *Registry) Type(guid string) *TypeKnowledge {
	return r.types[guid]
}

// TypeCount returns the number of distinct observed types.
func (r *Registry) TypeCount() int { return len(r.types) }

// PatternCount returns the number of distinct observed connection patterns.
func (r *Registry) PatternCount() int { return len(r.patterns) }

// ObserveNode registers one node occurrence: creates the type entry on
// first sight, increments usage, and unions names and port labels.
func (r *Registry) ObserveNode(n graphdoc.Node) {
	if n.GUID == "" {
		return
	}
	tk, ok := r.types[n.GUID]
	if !ok {
		tk = newTypeKnowledge(n.GUID)
		r.types[n.GUID] = tk
	}
	tk.UsageCount++
	tk.Names.Add(n.Name)
	tk.Nicknames.Add(n.Nickname)
	for _, p := range n.Inputs {
		tk.Inputs.Observe(p.Label, p.FullName)
	}
	for _, p := range n.Outputs {
		tk.Outputs.Observe(p.Label, p.FullName)
	}
}

// PatternKey builds the canonical connection-pattern string.
func PatternKey(sourceType, sourceParam, targetType, targetParam string) string {
	return fmt.Sprintf("%s.%s -> %s.%s", sourceType, sourceParam, targetType, targetParam)
}

// ObserveConnection registers one directed connection between two already
// observed nodes: increments the pattern counter (keyed by the endpoint
// type identifiers) and both endpoints' pairwise connection counts (keyed
// by the other type's identifier).
func (r *Registry) ObserveConnection(src, tgt *graphdoc.Node, sourceParam, targetParam string) {
	r.patterns.Inc(PatternKey(src.GUID, sourceParam, tgt.GUID, targetParam))

	if stk := r.types[src.GUID]; stk != nil {
		stk.ConnectedTo.Inc(tgt.GUID)
	}
	if ttk := r.types[tgt.GUID]; ttk != nil {
		ttk.ConnectedFrom.Inc(src.GUID)
	}
}
