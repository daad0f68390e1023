package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/fernwell/nodeatlas/internal/apperr"
	"github.com/fernwell/nodeatlas/internal/storage"
)

// SaveExport writes an export as indented JSON through the storage
// provider. I/O failures are returned to the caller; the batch that
// produced the export is unaffected.
func SaveExport(store storage.Provider, path string, exp *Export) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("knowledge: encode export: %w", err)
	}
	if err := store.Write(path, data); err != nil {
		return fmt.Errorf("knowledge: save export: %w", err)
	}
	return nil
}

// LoadExport reads a previously persisted export. A missing file maps to
// apperr.ErrNotFound so callers can treat "no prior knowledge" as a
// normal first-run condition.
func LoadExport(store storage.Provider, path string) (*Export, error) {
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("knowledge: load export: %w", err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("knowledge: decode export %s: %w", path, err)
	}
	if exp.Types == nil {
		exp.Types = make(map[string]*TypeExport)
	}
	if exp.NameIndex == nil {
		exp.NameIndex = make(map[string]string)
	}
	return &exp, nil
}
