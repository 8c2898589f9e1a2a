package casedb

import (
	"path/filepath"
	"testing"

	"github.com/Napageneral/commscan/internal/record"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "case.db"))
	if err != nil {
		t.Fatalf("Failed to open case db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostAndReadBack(t *testing.T) {
	db := openTestDB(t)

	err := db.PostContact(record.Contact{
		Source:      "WhatsApp Parser",
		DisplayName: "Alice Example",
		Phone:       "+15551234567",
		Extra:       []record.ExtraAttribute{{Kind: "id", Value: "15551234567@s.whatsapp.net"}},
	})
	if err != nil {
		t.Fatalf("PostContact failed: %v", err)
	}

	err = db.PostMessage(record.Message{
		Kind:         "WhatsApp Message",
		Direction:    record.DirectionOutgoing,
		To:           []record.Address{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		TimestampSec: 1609459200,
		ReadStatus:   record.ReadStatusUnknown,
		Body:         "hello group",
		ThreadID:     "group-1@g.us",
		Attachment:   &record.Attachment{Path: "/media/img.jpg", MimeType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	err = db.PostCallLog(record.CallLog{
		Source:    "Viber Parser",
		Direction: record.DirectionOutgoing,
		To:        []record.Address{{ID: "+15559876543"}},
		StartSec:  1609459200,
		EndSec:    1609459260,
		MediaType: record.CallMediaVideo,
	})
	if err != nil {
		t.Fatalf("PostCallLog failed: %v", err)
	}

	err = db.PostGeoPoint(record.GeoPoint{Source: "Browser Location", Latitude: 37.7749, Longitude: -122.4194})
	if err != nil {
		t.Fatalf("PostGeoPoint failed: %v", err)
	}

	err = db.PostGeoRoute(record.GeoRoute{
		Source: "Google Maps History",
		Label:  "trip",
		Points: []record.GeoPoint{
			{Latitude: 37.0, Longitude: -122.0},
			{Latitude: 37.5, Longitude: -122.2},
		},
	})
	if err != nil {
		t.Fatalf("PostGeoRoute failed: %v", err)
	}

	stats, err := db.ReadStats()
	if err != nil {
		t.Fatalf("ReadStats failed: %v", err)
	}
	if stats.Contacts != 1 || stats.Messages != 1 || stats.CallLogs != 1 {
		t.Errorf("Stats = %+v, want 1 contact / 1 message / 1 call log", stats)
	}
	if stats.GeoRoutes != 1 || stats.GeoPoints != 3 {
		t.Errorf("Stats = %+v, want 1 route and 3 points (1 standalone + 2 route)", stats)
	}
	if stats.MessageKinds["WhatsApp Message"] != 1 {
		t.Errorf("MessageKinds = %v, want WhatsApp Message: 1", stats.MessageKinds)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	if err := db.PostMessage(record.Message{Kind: "SMS Message"}); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	db.Close()

	// Reopening must not re-run migrations destructively.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	defer db.Close()
	stats, err := db.ReadStats()
	if err != nil {
		t.Fatalf("ReadStats failed: %v", err)
	}
	if stats.Messages != 1 {
		t.Errorf("Messages = %d after reopen, want 1", stats.Messages)
	}
}
