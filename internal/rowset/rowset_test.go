package rowset

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openFixture(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open fixture db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE samples (
			id INTEGER PRIMARY KEY,
			name TEXT,
			amount,
			ratio REAL
		);
		INSERT INTO samples VALUES (1, 'alpha', '42', 0.5);
		INSERT INTO samples VALUES (2, NULL, 'not-a-number', NULL);
		INSERT INTO samples VALUES (3, 'gamma', 7, 2.25);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func query(t *testing.T, db *sql.DB, q string) *Rows {
	t.Helper()
	raw, err := db.Query(q)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	rs, err := Wrap(raw)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func TestTypedGetters(t *testing.T) {
	db := openFixture(t)
	rs := query(t, db, "SELECT id, name, amount, ratio FROM samples ORDER BY id")

	if !rs.Next() {
		t.Fatal("Expected first row")
	}
	if got := rs.GetString("name"); !got.Valid || got.String != "alpha" {
		t.Errorf("GetString(name) = %+v, want alpha", got)
	}
	// TEXT column holding a number parses.
	if got := rs.GetLong("amount"); !got.Valid || got.Int64 != 42 {
		t.Errorf("GetLong(amount) = %+v, want 42", got)
	}
	if got := rs.GetDouble("ratio"); !got.Valid || got.Float64 != 0.5 {
		t.Errorf("GetDouble(ratio) = %+v, want 0.5", got)
	}
	// Numbers format as text on demand.
	if got := rs.GetString("id"); !got.Valid || got.String != "1" {
		t.Errorf("GetString(id) = %+v, want 1", got)
	}
	if len(rs.FieldErrors()) != 0 {
		t.Errorf("Unexpected field errors: %v", rs.FieldErrors())
	}
}

func TestNullMissingAndMalformedAreDistinct(t *testing.T) {
	db := openFixture(t)
	rs := query(t, db, "SELECT id, name, amount FROM samples WHERE id = 2")

	if !rs.Next() {
		t.Fatal("Expected row")
	}

	// NULL: invalid, no field error.
	if got := rs.GetString("name"); got.Valid {
		t.Errorf("GetString(name) on NULL = %+v, want invalid", got)
	}
	if len(rs.FieldErrors()) != 0 {
		t.Errorf("NULL should not record a field error, got %v", rs.FieldErrors())
	}

	// Malformed numeric text: invalid plus a recorded field error.
	if got := rs.GetLong("amount"); got.Valid {
		t.Errorf("GetLong(amount) on garbage = %+v, want invalid", got)
	}
	if len(rs.FieldErrors()) != 1 {
		t.Fatalf("Expected 1 field error, got %v", rs.FieldErrors())
	}

	// Missing column: invalid plus another field error.
	if got := rs.GetString("no_such_column"); got.Valid {
		t.Errorf("GetString on missing column = %+v, want invalid", got)
	}
	if len(rs.FieldErrors()) != 2 {
		t.Fatalf("Expected 2 field errors, got %v", rs.FieldErrors())
	}
}

func TestFieldErrorsResetPerRow(t *testing.T) {
	db := openFixture(t)
	rs := query(t, db, "SELECT id, amount FROM samples ORDER BY id")

	var badRows int
	for rs.Next() {
		rs.GetLong("amount")
		if len(rs.FieldErrors()) > 0 {
			badRows++
		}
	}
	if badRows != 1 {
		t.Errorf("Expected exactly 1 row with field errors, got %d", badRows)
	}
}

func TestAccessOutsideRowPanics(t *testing.T) {
	db := openFixture(t)
	rs := query(t, db, "SELECT id FROM samples")

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on access before Next")
		}
	}()
	rs.GetString("id")
}

func TestCloseIsIdempotent(t *testing.T) {
	db := openFixture(t)
	rs := query(t, db, "SELECT id FROM samples")
	if err := rs.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
	if rs.Next() {
		t.Error("Next after Close should return false")
	}
}
