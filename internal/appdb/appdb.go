// Package appdb handles read-only access to a materialized copy of an
// application SQLite database. Databases coming out of a forensic
// extraction are never written to; every open sets query-only pragmas.
package appdb

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Napageneral/commscan/internal/rowset"
)

// DB is one open application database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the database at path with read-only optimized pragmas.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s", path)
	}

	uri := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// One connection so ATTACH and pragmas hold for every query.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA query_only=ON",
		"PRAGMA synchronous=OFF",
		"PRAGMA journal_mode=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Ignore pragma errors (some may not be supported)
			continue
		}
	}

	// Fail fast on corrupt or non-SQLite files instead of at first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &DB{db: db, path: path}, nil
}

// Path returns the local path this database was opened from.
func (d *DB) Path() string {
	return d.path
}

// RunQuery executes sql and returns a wrapped cursor over the result.
func (d *DB) RunQuery(query string, args ...any) (*rowset.Rows, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rowset.Wrap(rows)
}

// QueryRow runs a single-row query; used for self-account lookups.
func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	return d.db.QueryRow(query, args...)
}

// Attach attaches a sibling database under the given schema name so a
// query can join across the app's database files (WhatsApp msgstore + wa,
// Line call_history + naver_line).
func (d *DB) Attach(path, schema string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("attach target %s: %w", path, err)
	}
	if _, err := d.db.Exec(fmt.Sprintf("ATTACH DATABASE '%s' AS %s", path, schema)); err != nil {
		return fmt.Errorf("failed to attach %s as %s: %w", path, schema, err)
	}
	return nil
}

// HasTable reports whether a table exists in the main schema. Analyzers
// use it to skip queries against schema versions that predate a table.
func (d *DB) HasTable(name string) bool {
	var n int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&n)
	return err == nil && n > 0
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
