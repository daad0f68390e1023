package knowledge

import (
	"encoding/json"
	"sort"
)

// StringSet is a grow-only set of observed strings. It marshals as a sorted
// JSON array so exports are stable across runs.
type StringSet map[string]struct{}

// NewStringSet creates a set containing the given items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v and reports whether it was newly added. Empty strings are
// ignored.
func (s StringSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union adds every element of other into s.
func (s StringSet) Union(other StringSet) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Sorted returns the elements in lexicographic order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes the set from an array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// FreqMap counts occurrences per string key.
type FreqMap map[string]int

// Inc adds one occurrence of key.
func (m FreqMap) Inc(key string) {
	m[key]++
}

// Add adds n occurrences of key.
func (m FreqMap) Add(key string, n int) {
	m[key] += n
}

// Merge sums every count of other into m.
func (m FreqMap) Merge(other FreqMap) {
	for k, n := range other {
		m[k] += n
	}
}

// FreqEntry is one ranked (key, count) pair.
type FreqEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Top returns the n highest-count entries, count descending. Equal counts
// are ordered by key so rankings are deterministic. n <= 0 returns all
// entries ranked.
func (m FreqMap) Top(n int) []FreqEntry {
	out := make([]FreqEntry, 0, len(m))
	for k, c := range m {
		out = append(out, FreqEntry{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ParamNames maps a short port label to every full name observed for it.
type ParamNames map[string]StringSet

// Observe records fullName under label. A label with no full name still
// registers the label itself.
func (p ParamNames) Observe(label, fullName string) {
	if label == "" {
		return
	}
	set, ok := p[label]
	if !ok {
		set = NewStringSet()
		p[label] = set
	}
	if fullName != "" {
		set.Add(fullName)
	}
}

// Merge unions every label's name set from other into p.
func (p ParamNames) Merge(other ParamNames) {
	for label, names := range other {
		set, ok := p[label]
		if !ok {
			set = NewStringSet()
			p[label] = set
		}
		set.Union(names)
	}
}
