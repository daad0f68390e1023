package knowledge

import (
	"sort"
	"strings"
	"time"
)

// Export view limits. The registry keeps the full maps; only the exported
// snapshot is truncated.
const (
	exportConnectionLimit = 10
	exportPatternLimit    = 100
)

// TypeExport is the snapshot view of one type's knowledge. Connection
// rankings are truncated to the top entries by frequency.
type TypeExport struct {
	GUID          string     `json:"guid"`
	Names         StringSet  `json:"names"`
	Nicknames     StringSet  `json:"nicknames,omitempty"`
	Inputs        ParamNames `json:"inputs,omitempty"`
	Outputs       ParamNames `json:"outputs,omitempty"`
	UsageCount    int        `json:"usage_count"`
	ConnectedTo   FreqMap    `json:"connected_to,omitempty"`
	ConnectedFrom FreqMap    `json:"connected_from,omitempty"`
}

// PatternEntry is one ranked connection pattern.
type PatternEntry struct {
	Pattern   string `json:"pattern"`
	Frequency int    `json:"frequency"`
}

// Stats summarizes an export.
type Stats struct {
	TypeCount    int `json:"type_count"`
	PatternCount int `json:"pattern_count"`
}

// Export is the persisted knowledge snapshot.
type Export struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Types       map[string]*TypeExport `json:"types"`
	Patterns    []PatternEntry         `json:"patterns"`
	NameIndex   map[string]string      `json:"name_index"`
	Stats       Stats                  `json:"stats"`
}

// Export builds a snapshot of the registry: per-type knowledge with
// connection maps truncated to the top 10, the pattern table truncated to
// the top 100, a case-insensitive name index, and aggregate statistics.
func (r *Registry) Export() *Export {
	exp := &Export{
		GeneratedAt: time.Now().UTC(),
		Types:       make(map[string]*TypeExport, len(r.types)),
		NameIndex:   make(map[string]string),
		Stats: Stats{
			TypeCount:    len(r.types),
			PatternCount: len(r.patterns),
		},
	}

	for guid, tk := range r.types {
		exp.Types[guid] = &TypeExport{
			GUID:          guid,
			Names:         copySet(tk.Names),
			Nicknames:     copySet(tk.Nicknames),
			Inputs:        copyParamNames(tk.Inputs),
			Outputs:       copyParamNames(tk.Outputs),
			UsageCount:    tk.UsageCount,
			ConnectedTo:   truncateFreq(tk.ConnectedTo, exportConnectionLimit),
			ConnectedFrom: truncateFreq(tk.ConnectedFrom, exportConnectionLimit),
		}
	}

	for _, e := range r.patterns.Top(exportPatternLimit) {
		exp.Patterns = append(exp.Patterns, PatternEntry{Pattern: e.Key, Frequency: e.Count})
	}

	exp.rebuildNameIndex()
	return exp
}

// Merge combines a freshly extracted export with a previously persisted
// one: set-valued fields are unioned, counts and frequencies are summed,
// and types or patterns present only in prior are carried through
// unchanged. Re-merging the same batch twice double-counts; callers must
// merge each extraction exactly once.
func Merge(current, prior *Export) *Export {
	if prior == nil {
		return current
	}

	merged := &Export{
		GeneratedAt: time.Now().UTC(),
		Types:       make(map[string]*TypeExport, len(current.Types)+len(prior.Types)),
		NameIndex:   make(map[string]string),
	}

	for guid, te := range current.Types {
		merged.Types[guid] = cloneTypeExport(te)
	}
	for guid, pe := range prior.Types {
		te, ok := merged.Types[guid]
		if !ok {
			merged.Types[guid] = cloneTypeExport(pe)
			continue
		}
		te.Names.Union(pe.Names)
		te.Nicknames.Union(pe.Nicknames)
		te.Inputs.Merge(pe.Inputs)
		te.Outputs.Merge(pe.Outputs)
		te.UsageCount += pe.UsageCount
		te.ConnectedTo.Merge(pe.ConnectedTo)
		te.ConnectedFrom.Merge(pe.ConnectedFrom)
		te.ConnectedTo = truncateFreq(te.ConnectedTo, exportConnectionLimit)
		te.ConnectedFrom = truncateFreq(te.ConnectedFrom, exportConnectionLimit)
	}

	pat := make(FreqMap)
	for _, e := range current.Patterns {
		pat.Add(e.Pattern, e.Frequency)
	}
	for _, e := range prior.Patterns {
		pat.Add(e.Pattern, e.Frequency)
	}
	distinct := len(pat)
	for _, e := range pat.Top(exportPatternLimit) {
		merged.Patterns = append(merged.Patterns, PatternEntry{Pattern: e.Key, Frequency: e.Count})
	}

	merged.Stats = Stats{TypeCount: len(merged.Types), PatternCount: distinct}
	merged.rebuildNameIndex()
	return merged
}

// Lookup resolves a display name to a type identifier through the
// case-insensitive name index.
func (e *Export) Lookup(name string) (string, bool) {
	guid, ok := e.NameIndex[strings.ToLower(name)]
	return guid, ok
}

// rebuildNameIndex derives the case-insensitive name -> guid index from
// the type table. Types are visited in guid order and names in sorted
// order, first writer wins, so the index is deterministic even when two
// types share a display name.
func (e *Export) rebuildNameIndex() {
	guids := make([]string, 0, len(e.Types))
	for guid := range e.Types {
		guids = append(guids, guid)
	}
	sort.Strings(guids)

	for _, guid := range guids {
		te := e.Types[guid]
		for _, name := range te.Names.Sorted() {
			key := strings.ToLower(name)
			if _, taken := e.NameIndex[key]; !taken {
				e.NameIndex[key] = guid
			}
		}
	}
}

func copySet(s StringSet) StringSet {
	out := NewStringSet()
	out.Union(s)
	return out
}

func copyParamNames(p ParamNames) ParamNames {
	out := make(ParamNames, len(p))
	out.Merge(p)
	return out
}

func truncateFreq(m FreqMap, n int) FreqMap {
	if len(m) <= n {
		out := make(FreqMap, len(m))
		out.Merge(m)
		return out
	}
	out := make(FreqMap, n)
	for _, e := range m.Top(n) {
		out[e.Key] = e.Count
	}
	return out
}

func cloneTypeExport(te *TypeExport) *TypeExport {
	return &TypeExport{
		GUID:          te.GUID,
		Names:         copySet(te.Names),
		Nicknames:     copySet(te.Nicknames),
		Inputs:        copyParamNames(te.Inputs),
		Outputs:       copyParamNames(te.Outputs),
		UsageCount:    te.UsageCount,
		ConnectedTo:   truncateFreq(te.ConnectedTo, exportConnectionLimit),
		ConnectedFrom: truncateFreq(te.ConnectedFrom, exportConnectionLimit),
	}
}
