package graphdoc

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fernwell/nodeatlas/internal/storage"
)

// Source produces parsed documents for the knowledge pipeline.
type Source interface {
	Load() ([]*Document, error)
}

// DirSource loads every .json document under one directory of a storage
// provider. Files that fail to decode are skipped with a warning; a corpus
// with gaps is still a corpus.
type DirSource struct {
	store  storage.Provider
	dir    string
	logger *slog.Logger
}

// NewDirSource creates a DirSource reading from dir (relative to the
// provider root).
func NewDirSource(store storage.Provider, dir string, logger *slog.Logger) *DirSource {
	return &DirSource{store: store, dir: dir, logger: logger}
}

// Load reads and decodes every document file. A document with an empty id
// gets its file name (without extension) as id so example sets stay keyed.
func (s *DirSource) Load() ([]*Document, error) {
	metas, err := s.store.List(s.dir, ".json")
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			s.logger.Warn("corpus: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		doc, err := Decode(data)
		if err != nil {
			s.logger.Warn("corpus: skipping malformed document", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if doc.ID == "" {
			doc.ID = strings.TrimSuffix(filepath.Base(m.Path), ".json")
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

var _ Source = (*DirSource)(nil)
