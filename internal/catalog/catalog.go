package catalog

import (
	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/knowledge"
)

// Catalog defines the interface for knowledge-archive queries. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type Catalog interface {
	Rebuild(kexp *knowledge.Export, cexp *connection.Export) error
	SearchTypes(q string, limit int) ([]TypeRow, error)
	TopPatterns(n int) ([]PatternRow, error)
	TripletsForType(typeName string, limit int) ([]connection.Triplet, error)
	Stats() (types, patterns int, err error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
