// Package casedb is the bundled artifact sink: a local SQLite case database
// that persists normalized records and assigns them stable ids. It
// implements scan.Sink; the scan core knows nothing about its schema.
package casedb

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Napageneral/commscan/internal/record"
)

// DB is an open case database. Safe for concurrent posting.
type DB struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) a case database at path and applies the
// embedded schema migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open case database: %w", err)
	}
	// One writer connection; SQLite serializes writes anyway and this
	// avoids SQLITE_BUSY from pool churn under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close closes the case database.
func (c *DB) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// PostContact persists one contact and its extra attributes.
func (c *DB) PostContact(ct record.Contact) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(`
		INSERT INTO contacts (id, source, display_name, phone, home_phone, mobile_phone, email)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, ct.Source, ct.DisplayName, ct.Phone, ct.HomePhone, ct.MobilePhone, ct.Email); err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	for _, attr := range ct.Extra {
		if _, err := tx.Exec(`
			INSERT INTO contact_attributes (contact_id, kind, value) VALUES (?, ?, ?)
		`, id, attr.Kind, attr.Value); err != nil {
			return fmt.Errorf("failed to insert contact attribute: %w", err)
		}
	}
	return tx.Commit()
}

// PostMessage persists one message.
func (c *DB) PostMessage(m record.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var attPath, attMime string
	if m.Attachment != nil {
		attPath = m.Attachment.Path
		attMime = m.Attachment.MimeType
	}
	_, err := c.db.Exec(`
		INSERT INTO messages (
			id, kind, direction, from_address, recipients, timestamp,
			read_status, subject, body, thread_id, attachment_path, attachment_mime
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), m.Kind, m.Direction.String(), addressID(m.From),
		joinAddresses(m.To), m.TimestampSec, m.ReadStatus.String(),
		m.Subject, m.Body, m.ThreadID, attPath, attMime)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// PostCallLog persists one call-log record.
func (c *DB) PostCallLog(cl record.CallLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`
		INSERT INTO call_logs (id, source, direction, from_address, recipients, start_ts, end_ts, media_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), cl.Source, cl.Direction.String(), addressID(cl.From),
		joinAddresses(cl.To), cl.StartSec, cl.EndSec, cl.MediaType.String())
	if err != nil {
		return fmt.Errorf("failed to insert call log: %w", err)
	}
	return nil
}

// PostGeoPoint persists a standalone geolocation point.
func (c *DB) PostGeoPoint(p record.GeoPoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertPoint(c.db, p, "", 0)
}

// PostGeoRoute persists a route and its ordered points.
func (c *DB) PostGeoRoute(r record.GeoRoute) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	routeID := uuid.NewString()
	if _, err := tx.Exec(`
		INSERT INTO geo_routes (id, source, label) VALUES (?, ?, ?)
	`, routeID, r.Source, r.Label); err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	for i, p := range r.Points {
		if p.Source == "" {
			p.Source = r.Source
		}
		if err := c.insertPoint(tx, p, routeID, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (c *DB) insertPoint(e execer, p record.GeoPoint, routeID string, seq int) error {
	var alt any
	if p.HasAltitude {
		alt = p.Altitude
	}
	var route any
	if routeID != "" {
		route = routeID
	}
	_, err := e.Exec(`
		INSERT INTO geo_points (id, source, route_id, seq, latitude, longitude, altitude, timestamp, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), p.Source, route, seq, p.Latitude, p.Longitude, alt, p.TimestampSec, p.Label)
	if err != nil {
		return fmt.Errorf("failed to insert geo point: %w", err)
	}
	return nil
}

func addressID(a *record.Address) string {
	if a == nil {
		return ""
	}
	return a.ID
}

func joinAddresses(addrs []record.Address) string {
	ids := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ids = append(ids, a.ID)
	}
	return strings.Join(ids, ",")
}
