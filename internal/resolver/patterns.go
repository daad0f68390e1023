package resolver

import (
	"encoding/json"
	"log/slog"

	"github.com/fernwell/nodeatlas/internal/storage"
)

// patternFile is the shape of one captured pattern file: the nodes that
// appeared in a previously built graph, reduced to name/identifier pairs.
type patternFile struct {
	Name  string `json:"name,omitempty"`
	Nodes []struct {
		Type string `json:"type"`
		GUID string `json:"guid"`
	} `json:"nodes"`
}

// LoadPatternLibrary scans a directory of pattern files and builds the
// name -> identifier library. Files are visited in lexical path order and
// the first writer wins per name, so the library is deterministic.
// Unreadable or malformed files are skipped with a warning.
func LoadPatternLibrary(store storage.Provider, dir string, logger *slog.Logger) (map[string]string, error) {
	metas, err := store.List(dir, ".json")
	if err != nil {
		return nil, err
	}

	lib := make(map[string]string)
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("resolver: pattern file read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		var pf patternFile
		if err := json.Unmarshal(data, &pf); err != nil {
			logger.Warn("resolver: skipping malformed pattern file", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		for _, n := range pf.Nodes {
			if n.Type == "" || n.GUID == "" {
				continue
			}
			if _, taken := lib[n.Type]; !taken {
				lib[n.Type] = n.GUID
			}
		}
	}

	logger.Info("resolver: pattern library loaded",
		slog.Int("files", len(metas)),
		slog.Int("names", len(lib)))
	return lib, nil
}
