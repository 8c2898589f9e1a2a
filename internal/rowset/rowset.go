// Package rowset wraps a database/sql result set with the loosely-typed,
// name-addressed column access the app analyzers need. App schemas drift
// between versions, store numbers in TEXT columns, and routinely hold NULLs
// where a value is expected; the getters here make "column missing",
// "column NULL", and "value malformed" three distinct, non-fatal states so
// a bad field costs that field its default, never the row.
package rowset

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// FieldError records a single failed column conversion on the current row.
type FieldError struct {
	Column string
	Err    error
}

func (f FieldError) Error() string {
	return fmt.Sprintf("column %q: %v", f.Column, f.Err)
}

// Rows is a forward-only cursor over a query result. Values of the current
// row are snapshotted on Next, so getters never touch the driver.
type Rows struct {
	rows      *sql.Rows
	cols      map[string]int
	vals      []any
	current   bool
	closed    bool
	fieldErrs []FieldError
}

// Wrap prepares a Rows over an open *sql.Rows. The caller keeps ownership
// of closing via Close.
func Wrap(rows *sql.Rows) (*Rows, error) {
	names, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading result columns: %w", err)
	}
	cols := make(map[string]int, len(names))
	for i, n := range names {
		// Column names are matched case-insensitively, the way SQLite
		// itself treats identifiers.
		cols[strings.ToLower(n)] = i
	}
	return &Rows{rows: rows, cols: cols, vals: make([]any, len(names))}, nil
}

// Next advances to the next row, returning false at end of results or on a
// cursor error (reported by Err).
func (r *Rows) Next() bool {
	r.current = false
	r.fieldErrs = r.fieldErrs[:0]
	if r.closed || !r.rows.Next() {
		return false
	}
	ptrs := make([]any, len(r.vals))
	for i := range r.vals {
		r.vals[i] = nil
		ptrs[i] = &r.vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		// A scan failure poisons only this row; the caller sees it end.
		r.fieldErrs = append(r.fieldErrs, FieldError{Column: "*", Err: err})
		return false
	}
	r.current = true
	return true
}

// Err returns the cursor error that terminated iteration, if any.
func (r *Rows) Err() error {
	return r.rows.Err()
}

// Close releases the underlying cursor. Safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}

// FieldErrors returns the conversion failures recorded against the current
// row. The slice is reset by Next.
func (r *Rows) FieldErrors() []FieldError {
	return r.fieldErrs
}

func (r *Rows) lookup(col string) (any, bool) {
	if !r.current {
		panic("rowset: column access outside a valid row")
	}
	i, ok := r.cols[strings.ToLower(col)]
	if !ok {
		r.fieldErrs = append(r.fieldErrs, FieldError{Column: col, Err: fmt.Errorf("no such column")})
		return nil, false
	}
	return r.vals[i], true
}

func (r *Rows) fail(col string, err error) {
	r.fieldErrs = append(r.fieldErrs, FieldError{Column: col, Err: err})
}

// GetString returns the named column as text. NULL and missing columns are
// invalid; numeric values are formatted.
func (r *Rows) GetString(col string) sql.NullString {
	v, ok := r.lookup(col)
	if !ok || v == nil {
		return sql.NullString{}
	}
	switch t := v.(type) {
	case string:
		return sql.NullString{String: t, Valid: true}
	case []byte:
		return sql.NullString{String: string(t), Valid: true}
	case int64:
		return sql.NullString{String: strconv.FormatInt(t, 10), Valid: true}
	case float64:
		return sql.NullString{String: strconv.FormatFloat(t, 'f', -1, 64), Valid: true}
	case bool:
		if t {
			return sql.NullString{String: "1", Valid: true}
		}
		return sql.NullString{String: "0", Valid: true}
	default:
		r.fail(col, fmt.Errorf("unexpected type %T", v))
		return sql.NullString{}
	}
}

// GetLong returns the named column as an int64. TEXT values are parsed;
// malformed text records a field error and comes back invalid.
func (r *Rows) GetLong(col string) sql.NullInt64 {
	v, ok := r.lookup(col)
	if !ok || v == nil {
		return sql.NullInt64{}
	}
	switch t := v.(type) {
	case int64:
		return sql.NullInt64{Int64: t, Valid: true}
	case float64:
		return sql.NullInt64{Int64: int64(t), Valid: true}
	case bool:
		if t {
			return sql.NullInt64{Int64: 1, Valid: true}
		}
		return sql.NullInt64{Valid: true}
	case string:
		return r.parseLong(col, t)
	case []byte:
		return r.parseLong(col, string(t))
	default:
		r.fail(col, fmt.Errorf("unexpected type %T", v))
		return sql.NullInt64{}
	}
}

func (r *Rows) parseLong(col, s string) sql.NullInt64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		r.fail(col, fmt.Errorf("malformed integer %q", s))
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

// GetDouble returns the named column as a float64, parsing TEXT values.
func (r *Rows) GetDouble(col string) sql.NullFloat64 {
	v, ok := r.lookup(col)
	if !ok || v == nil {
		return sql.NullFloat64{}
	}
	switch t := v.(type) {
	case float64:
		return sql.NullFloat64{Float64: t, Valid: true}
	case int64:
		return sql.NullFloat64{Float64: float64(t), Valid: true}
	case string:
		return r.parseDouble(col, t)
	case []byte:
		return r.parseDouble(col, string(t))
	default:
		r.fail(col, fmt.Errorf("unexpected type %T", v))
		return sql.NullFloat64{}
	}
}

func (r *Rows) parseDouble(col, s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		r.fail(col, fmt.Errorf("malformed number %q", s))
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
