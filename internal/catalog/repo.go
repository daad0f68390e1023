package catalog

import (
	"fmt"

	"github.com/fernwell/nodeatlas/internal/connection"
	"github.com/fernwell/nodeatlas/internal/knowledge"
)

// TypeRow is one catalogued node type.
type TypeRow struct {
	GUID        string `json:"guid"`
	DisplayName string `json:"display_name"`
	UsageCount  int    `json:"usage_count"`
}

// PatternRow is one ranked connection pattern.
type PatternRow struct {
	Pattern   string `json:"pattern"`
	Frequency int    `json:"frequency"`
}

// Rebuild replaces the entire catalog with the contents of the given
// exports, in one transaction. Either export may be nil.
func (db *DB) Rebuild(kexp *knowledge.Export, cexp *connection.Export) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"types", "type_names", "patterns", "triplets"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("catalog: clear %s: %w", table, err)
		}
	}

	if kexp != nil {
		typeStmt, err := tx.Prepare(`INSERT INTO types (guid, display_name, usage_count) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare type insert: %w", err)
		}
		defer typeStmt.Close()
		nameStmt, err := tx.Prepare(`INSERT OR IGNORE INTO type_names (guid, name) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare name insert: %w", err)
		}
		defer nameStmt.Close()

		for guid, te := range kexp.Types {
			display := ""
			if names := te.Names.Sorted(); len(names) > 0 {
				display = names[0]
			}
			if _, err := typeStmt.Exec(guid, display, te.UsageCount); err != nil {
				return fmt.Errorf("catalog: insert type %s: %w", guid, err)
			}
			for _, name := range te.Names.Sorted() {
				if _, err := nameStmt.Exec(guid, name); err != nil {
					return fmt.Errorf("catalog: insert name: %w", err)
				}
			}
			for _, nick := range te.Nicknames.Sorted() {
				if _, err := nameStmt.Exec(guid, nick); err != nil {
					return fmt.Errorf("catalog: insert nickname: %w", err)
				}
			}
		}

		for _, p := range kexp.Patterns {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO patterns (pattern, frequency) VALUES (?, ?)`, p.Pattern, p.Frequency); err != nil {
				return fmt.Errorf("catalog: insert pattern: %w", err)
			}
		}
	}

	if cexp != nil {
		tripletStmt, err := tx.Prepare(`
			INSERT INTO triplets (source_type, source_param, target_type, target_param, frequency)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(source_type, source_param, target_type, target_param) DO UPDATE SET
				frequency = excluded.frequency
		`)
		if err != nil {
			return fmt.Errorf("catalog: prepare triplet insert: %w", err)
		}
		defer tripletStmt.Close()

		for _, t := range cexp.Triplets {
			if _, err := tripletStmt.Exec(t.SourceType, t.SourceParam, t.TargetType, t.TargetParam, t.Frequency); err != nil {
				return fmt.Errorf("catalog: insert triplet: %w", err)
			}
		}
	}

	return tx.Commit()
}

// SearchTypes returns types whose observed names contain q
// (case-insensitive), most used first.
func (db *DB) SearchTypes(q string, limit int) ([]TypeRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT DISTINCT t.guid, t.display_name, t.usage_count
		FROM types t
		JOIN type_names n ON n.guid = t.guid
		WHERE n.name LIKE '%' || ? || '%'
		ORDER BY t.usage_count DESC, t.guid
		LIMIT ?
	`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search types: %w", err)
	}
	defer rows.Close()

	var out []TypeRow
	for rows.Next() {
		var r TypeRow
		if err := rows.Scan(&r.GUID, &r.DisplayName, &r.UsageCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopPatterns returns the n most frequent connection patterns.
func (db *DB) TopPatterns(n int) ([]PatternRow, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := db.conn.Query(`
		SELECT pattern, frequency FROM patterns
		ORDER BY frequency DESC, pattern
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("catalog: top patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRow
	for rows.Next() {
		var r PatternRow
		if err := rows.Scan(&r.Pattern, &r.Frequency); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TripletsForType returns catalogued triplets touching the given type
// name as source or target, most frequent first.
func (db *DB) TripletsForType(typeName string, limit int) ([]connection.Triplet, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT source_type, source_param, target_type, target_param, frequency
		FROM triplets
		WHERE source_type = ? OR target_type = ?
		ORDER BY frequency DESC, source_type, target_type
		LIMIT ?
	`, typeName, typeName, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: triplets for type: %w", err)
	}
	defer rows.Close()

	var out []connection.Triplet
	for rows.Next() {
		var t connection.Triplet
		if err := rows.Scan(&t.SourceType, &t.SourceParam, &t.TargetType, &t.TargetParam, &t.Frequency); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats returns catalogued type and pattern counts.
func (db *DB) Stats() (types, patterns int, err error) {
	if err = db.conn.QueryRow(`SELECT count(*) FROM types`).Scan(&types); err != nil {
		return 0, 0, fmt.Errorf("catalog: count types: %w", err)
	}
	if err = db.conn.QueryRow(`SELECT count(*) FROM patterns`).Scan(&patterns); err != nil {
		return 0, 0, fmt.Errorf("catalog: count patterns: %w", err)
	}
	return types, patterns, nil
}
