package knowledge

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/fernwell/nodeatlas/internal/checksum"
	"github.com/fernwell/nodeatlas/internal/graphdoc"
)

// EventCallback is called after a watcher-driven knowledge update.
// kind is one of "indexed" or "removed".
type EventCallback func(kind, path string)

// EdgeRecorder receives the resolved edges of each newly indexed document.
// The connection analyzer implements it.
type EdgeRecorder interface {
	RecordDocument(doc *graphdoc.Document)
}

// Watcher keeps the live registry current as capture files land in the
// corpus directory. Knowledge is additive: file removals are logged but
// never subtract counts.
type Watcher struct {
	extractor *Extractor
	recorder  EdgeRecorder
	corpusDir string // absolute path to the documents directory
	logger    *slog.Logger

	seen map[string]string // path -> checksum of last indexed content
}

// NewWatcher creates a watcher feeding the given extractor and recorder.
func NewWatcher(extractor *Extractor, recorder EdgeRecorder, corpusDir string, logger *slog.Logger) *Watcher {
	return &Watcher{
		extractor: extractor,
		recorder:  recorder,
		corpusDir: corpusDir,
		logger:    logger,
		seen:      make(map[string]string),
	}
}

// Watch processes file change events until ctx is cancelled. New
// subdirectories created at runtime are added to the watch list. cb (if
// non-nil) runs after each accepted document.
func (w *Watcher) Watch(ctx context.Context, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addDirsRecursive(fsw, w.corpusDir); err != nil {
		return err
	}

	w.logger.Info("watcher: started", slog.String("root", w.corpusDir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev, cb)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, cb EventCallback) {
	absPath := ev.Name

	// New directories join the watch list; any documents already inside
	// are indexed immediately.
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fsw, absPath); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			}
			w.indexDir(absPath, cb)
			return
		}
	}

	if !strings.HasSuffix(absPath, ".json") {
		return
	}

	rel, relErr := filepath.Rel(w.corpusDir, absPath)
	if relErr != nil {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if w.indexFile(absPath, rel) && cb != nil {
			cb("indexed", rel)
		}

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.seen, rel)
		w.logger.Debug("watcher: document removed, counts retained", slog.String("path", rel))
		if cb != nil {
			cb("removed", rel)
		}
	}
}

// indexFile reads, decodes, and extracts one document. Returns true when
// the registry was updated. Editors fire multiple Write events per save;
// the checksum gate keeps re-extraction from double counting those.
func (w *Watcher) indexFile(absPath, rel string) bool {
	data, err := os.ReadFile(absPath)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}

	cs := checksum.Sum(data)
	if w.seen[rel] == cs {
		return false
	}

	doc, err := graphdoc.Decode(data)
	if err != nil {
		w.logger.Warn("watcher: skipping malformed document", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(rel), ".json")
	}

	w.extractor.ExtractDocument(doc)
	if w.recorder != nil {
		w.recorder.RecordDocument(doc)
	}
	w.seen[rel] = cs

	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("document", doc.ID))
	return true
}

// indexDir indexes any document files found in a newly created directory.
func (w *Watcher) indexDir(dirPath string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, relErr := filepath.Rel(w.corpusDir, path)
		if relErr != nil {
			return nil
		}
		if w.indexFile(path, rel) && cb != nil {
			cb("indexed", rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
