package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/fernwell/nodeatlas/internal/apperr"
	"github.com/fernwell/nodeatlas/internal/storage"
)

// Meta describes an export snapshot.
type Meta struct {
	GeneratedAt  time.Time `json:"generated_at"`
	TripletCount int       `json:"triplet_count"`
}

// Export is the full persisted analyzer state: metadata, the triplet list
// in first-seen order, and the derived per-type statistics.
type Export struct {
	Meta     Meta                  `json:"meta"`
	Triplets []*Triplet            `json:"triplets"`
	Types    map[string]*TypeStats `json:"types,omitempty"`
}

// Export snapshots the analyzer.
func (a *Analyzer) Export() *Export {
	return &Export{
		Meta: Meta{
			GeneratedAt:  time.Now().UTC(),
			TripletCount: len(a.triplets),
		},
		Triplets: a.all(),
		Types:    a.deriveStats(),
	}
}

// Restore rebuilds analyzer state from a persisted export. Triplet order
// in the export is the original first-seen order, so tie-breaks survive a
// round trip. Per-type statistics are re-derived, not trusted.
func (a *Analyzer) Restore(exp *Export) {
	for _, t := range exp.Triplets {
		key := t.Key()
		if _, ok := a.triplets[key]; ok {
			continue
		}
		cp := *t
		cp.Examples = append([]string(nil), t.Examples...)
		a.triplets[key] = &cp
		a.order = append(a.order, key)
	}
}

// SaveExport writes the analyzer state as indented JSON.
func SaveExport(store storage.Provider, path string, exp *Export) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("connection: encode export: %w", err)
	}
	if err := store.Write(path, data); err != nil {
		return fmt.Errorf("connection: save export: %w", err)
	}
	return nil
}

// LoadExport reads a previously persisted analyzer export. A missing file
// maps to apperr.ErrNotFound.
func LoadExport(store storage.Provider, path string) (*Export, error) {
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("connection: load export: %w", err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("connection: decode export %s: %w", path, err)
	}
	return &exp, nil
}
