// Package catalog provides a SQLite-backed, queryable archive of mined
// knowledge: node types, their observed names, and ranked connection
// patterns. It is rebuilt from the persisted exports and serves the HTTP
// API and MCP tools; resolution decisions never read it.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS types (
	guid        TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	usage_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS type_names (
	guid TEXT NOT NULL,
	name TEXT NOT NULL COLLATE NOCASE,
	UNIQUE(guid, name)
);

CREATE INDEX IF NOT EXISTS idx_type_names_name ON type_names(name);

CREATE TABLE IF NOT EXISTS patterns (
	pattern   TEXT PRIMARY KEY,
	frequency INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS triplets (
	source_type  TEXT NOT NULL,
	source_param TEXT NOT NULL,
	target_type  TEXT NOT NULL,
	target_param TEXT NOT NULL,
	frequency    INTEGER NOT NULL DEFAULT 0,
	UNIQUE(source_type, source_param, target_type, target_param)
);

CREATE INDEX IF NOT EXISTS idx_triplets_source ON triplets(source_type);
CREATE INDEX IF NOT EXISTS idx_triplets_target ON triplets(target_type);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
