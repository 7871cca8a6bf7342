package alias

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteLoader reads alias mappings from a SQLite database, for deployments
// that manage attribute-name mappings in a database instead of config files.
//
// Expected schema:
//
//	CREATE TABLE alias_names (
//	    resource  TEXT    NOT NULL,
//	    alias     TEXT    NOT NULL,
//	    canonical TEXT    NOT NULL,
//	    position  INTEGER NOT NULL DEFAULT 0
//	);
//
// Multiple rows with the same (resource, alias) form an ordered list of
// canonical names, ordered by position.
type SQLiteLoader struct {
	db *sql.DB
}

// OpenSQLiteLoader opens the database at the given path
func OpenSQLiteLoader(path string) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alias database %s: %w", path, err)
	}
	return &SQLiteLoader{db: db}, nil
}

// NewSQLiteLoader wraps an already-open database handle
func NewSQLiteLoader(db *sql.DB) *SQLiteLoader {
	return &SQLiteLoader{db: db}
}

// Load implements Loader
func (l *SQLiteLoader) Load(ctx context.Context, resource string) (map[string][]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT alias, canonical FROM alias_names WHERE resource = ? ORDER BY alias, position`,
		resource,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query alias resource %q: %w", resource, err)
	}
	defer func() { _ = rows.Close() }()

	mapping := make(map[string][]string)
	for rows.Next() {
		var aliasName, canonical string
		if err := rows.Scan(&aliasName, &canonical); err != nil {
			return nil, fmt.Errorf("failed to scan alias row: %w", err)
		}
		mapping[aliasName] = append(mapping[aliasName], canonical)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alias resource %q: %w", resource, err)
	}

	if len(mapping) == 0 {
		return nil, fmt.Errorf("alias resource %q not found", resource)
	}
	return mapping, nil
}

// Close closes the underlying database
func (l *SQLiteLoader) Close() error {
	return l.db.Close()
}
