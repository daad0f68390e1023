package connection

import (
	"fmt"

	"github.com/fernwell/nodeatlas/internal/knowledge"
)

// Recommendation limits.
const (
	neighborLimit   = 5
	descriptorLimit = 3
)

// TypeStats holds the four connection views for one type name. All of it
// is derived from the triplet set on demand; there is no second source of
// truth to drift from.
type TypeStats struct {
	TypeName      string                       `json:"type_name"`
	Predecessors  knowledge.FreqMap            `json:"predecessors,omitempty"`
	Successors    knowledge.FreqMap            `json:"successors,omitempty"`
	InputSources  map[string]knowledge.FreqMap `json:"input_sources,omitempty"`
	OutputTargets map[string]knowledge.FreqMap `json:"output_targets,omitempty"`
}

func newTypeStats(name string) *TypeStats {
	return &TypeStats{
		TypeName:      name,
		Predecessors:  make(knowledge.FreqMap),
		Successors:    make(knowledge.FreqMap),
		InputSources:  make(map[string]knowledge.FreqMap),
		OutputTargets: make(map[string]knowledge.FreqMap),
	}
}

// descriptor renders the "TypeName.ParamLabel" form used in port rankings.
func descriptor(typeName, paramLabel string) string {
	return fmt.Sprintf("%s.%s", typeName, paramLabel)
}

// deriveStats rebuilds the per-type statistics from the triplet set,
// weighting every entry by triplet frequency.
func (a *Analyzer) deriveStats() map[string]*TypeStats {
	stats := make(map[string]*TypeStats)

	get := func(name string) *TypeStats {
		ts, ok := stats[name]
		if !ok {
			ts = newTypeStats(name)
			stats[name] = ts
		}
		return ts
	}

	for _, t := range a.all() {
		src := get(t.SourceType)
		tgt := get(t.TargetType)

		src.Successors.Add(t.TargetType, t.Frequency)
		tgt.Predecessors.Add(t.SourceType, t.Frequency)

		in, ok := tgt.InputSources[t.TargetParam]
		if !ok {
			in = make(knowledge.FreqMap)
			tgt.InputSources[t.TargetParam] = in
		}
		in.Add(descriptor(t.SourceType, t.SourceParam), t.Frequency)

		out, ok := src.OutputTargets[t.SourceParam]
		if !ok {
			out = make(knowledge.FreqMap)
			src.OutputTargets[t.SourceParam] = out
		}
		out.Add(descriptor(t.TargetType, t.TargetParam), t.Frequency)
	}

	return stats
}

// Recommendation is the ranked answer to "what typically surrounds this
// type": top predecessor and successor types plus per-port descriptor
// rankings.
type Recommendation struct {
	TypeName      string                           `json:"type_name"`
	Predecessors  []knowledge.FreqEntry            `json:"predecessors,omitempty"`
	Successors    []knowledge.FreqEntry            `json:"successors,omitempty"`
	InputSources  map[string][]knowledge.FreqEntry `json:"input_sources,omitempty"`
	OutputTargets map[string][]knowledge.FreqEntry `json:"output_targets,omitempty"`
}

// Recommendations returns the ranked connection neighborhood for the given
// type name. The second return value is false when the type has never been
// observed; callers must treat that as "no data", not failure.
func (a *Analyzer) Recommendations(typeName string) (*Recommendation, bool) {
	ts, ok := a.deriveStats()[typeName]
	if !ok {
		return nil, false
	}

	rec := &Recommendation{
		TypeName:      typeName,
		Predecessors:  ts.Predecessors.Top(neighborLimit),
		Successors:    ts.Successors.Top(neighborLimit),
		InputSources:  make(map[string][]knowledge.FreqEntry, len(ts.InputSources)),
		OutputTargets: make(map[string][]knowledge.FreqEntry, len(ts.OutputTargets)),
	}
	for label, sources := range ts.InputSources {
		rec.InputSources[label] = sources.Top(descriptorLimit)
	}
	for label, targets := range ts.OutputTargets {
		rec.OutputTargets[label] = targets.Top(descriptorLimit)
	}
	return rec, true
}
