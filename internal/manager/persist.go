package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/fernwell/nodeatlas/internal/apperr"
	"github.com/fernwell/nodeatlas/internal/storage"
)

// Save snapshots the identifier map to the given file.
func (m *Manager) Save(store storage.Provider, path string) error {
	snapshot := m.Mappings()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("manager: encode id map: %w", err)
	}
	if err := store.Write(path, data); err != nil {
		return fmt.Errorf("manager: save id map: %w", err)
	}
	return nil
}

// Restore merges a persisted snapshot into the in-memory map under the
// guard. Existing entries win over restored ones: the live session is the
// fresher source.
func (m *Manager) Restore(store storage.Provider, path string) error {
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("manager: load id map: %w", err)
	}

	var snapshot map[string]string
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("manager: decode id map %s: %w", path, err)
	}

	m.mu.Lock()
	for key, id := range snapshot {
		if _, taken := m.ids[key]; !taken {
			m.ids[key] = id
		}
	}
	m.mu.Unlock()
	return nil
}
