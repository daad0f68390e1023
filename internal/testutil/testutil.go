// Package testutil provides shared test helpers for setting up data
// directories, catalogs, and a fake host.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fernwell/nodeatlas/internal/catalog"
	"github.com/fernwell/nodeatlas/internal/graphdoc"
	"github.com/fernwell/nodeatlas/internal/storage"
)

// TestStore creates a temporary data directory with a storage.Provider.
func TestStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestCatalog creates a temporary SQLite catalog that is automatically
// cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nodeatlas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteDocument marshals a document into dir/name.json under the data root.
func WriteDocument(t *testing.T, store storage.Provider, path string, doc *graphdoc.Document) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write(filepath.ToSlash(path), data); err != nil {
		t.Fatal(err)
	}
}

// FakeHost is an in-memory manager.Host implementation. CreateErr and
// DeleteErr force failures; CreatePanics makes Create panic to exercise
// worker fault isolation.
type FakeHost struct {
	mu           sync.Mutex
	next         int
	CreateErr    error
	DeleteErr    error
	CreatePanics bool
	Created      []string
	Deleted      []string
}

// Create assigns sequential host ids of the form "host-N".
func (f *FakeHost) Create(_ context.Context, guid string, _, _ float64) (string, error) {
	if f.CreatePanics {
		panic("fake host: create panic")
	}
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("host-%d", f.next)
	f.Created = append(f.Created, guid)
	return id, nil
}

// Delete confirms every deletion unless DeleteErr is set.
func (f *FakeHost) Delete(_ context.Context, id string) (bool, error) {
	if f.DeleteErr != nil {
		return false, f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, id)
	return true, nil
}
