package apps

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/scan"
)

// makeAppDB creates an application database at
// <root>/data/data/<pkg>/databases/<name> and runs the given statements
// against it.
func makeAppDB(t *testing.T, root, pkg, name, schema string) {
	t.Helper()
	dir := filepath.Join(root, "data", "data", pkg, "databases")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create fixture dir: %v", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to open fixture db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to populate %s: %v", name, err)
	}
}

func runAnalyzer(t *testing.T, a scan.Analyzer, root string) *scan.MemorySink {
	t.Helper()
	sink := &scan.MemorySink{}
	sc := scan.NewContext(context.Background(), nil, sink, scan.NewDirLocator(root))
	if err := a.Analyze(sc); err != nil {
		t.Fatalf("%s failed: %v", a.Name(), err)
	}
	return sink
}

func TestSMSIncomingMessage(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.android.providers.telephony", "mmssms.db", `
		CREATE TABLE sms (address TEXT, date INTEGER, read INTEGER,
			type TEXT, subject TEXT, body TEXT, thread_id INTEGER);
		CREATE TABLE pdu (_id INTEGER PRIMARY KEY, date INTEGER, read INTEGER,
			msg_box INTEGER, sub TEXT, thread_id INTEGER);
		CREATE TABLE addr (msg_id INTEGER, address TEXT, type INTEGER);
		CREATE TABLE part (mid INTEGER, ct TEXT, text TEXT, _data TEXT);
		INSERT INTO sms VALUES ('+15551234567', 1609459200000, 1, '1', NULL, 'happy new year', 4);
	`)

	sink := runAnalyzer(t, smsAnalyzer{}, root)
	if len(sink.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sink.Messages))
	}
	m := sink.Messages[0]
	if m.Direction != record.DirectionIncoming {
		t.Errorf("Direction = %v, want Incoming", m.Direction)
	}
	if m.From == nil || m.From.ID != "+15551234567" {
		t.Errorf("From = %+v, want +15551234567", m.From)
	}
	if m.TimestampSec != 1609459200 {
		t.Errorf("TimestampSec = %d, want 1609459200", m.TimestampSec)
	}
	if m.ReadStatus != record.ReadStatusRead {
		t.Errorf("ReadStatus = %v, want Read", m.ReadStatus)
	}
	if m.Body != "happy new year" {
		t.Errorf("Body = %q", m.Body)
	}
}

// A malformed numeric in one row must not cost any other row its record,
// and the bad field falls back to its default.
func TestSMSRowIsolation(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.android.providers.telephony", "mmssms.db", `
		CREATE TABLE sms (address TEXT, date, read INTEGER,
			type TEXT, subject TEXT, body TEXT, thread_id INTEGER);
		CREATE TABLE pdu (_id INTEGER PRIMARY KEY, date INTEGER, read INTEGER,
			msg_box INTEGER, sub TEXT, thread_id INTEGER);
		CREATE TABLE addr (msg_id INTEGER, address TEXT, type INTEGER);
		CREATE TABLE part (mid INTEGER, ct TEXT, text TEXT, _data TEXT);
		INSERT INTO sms VALUES ('+15550000001', 1000000000000, 1, '1', NULL, 'one', 1);
		INSERT INTO sms VALUES ('+15550000002', 1000000001000, 1, '1', NULL, 'two', 1);
		INSERT INTO sms VALUES ('+15550000003', 'not-a-date', 1, '1', NULL, 'three', 1);
		INSERT INTO sms VALUES ('+15550000004', 1000000003000, 1, '1', NULL, 'four', 1);
		INSERT INTO sms VALUES ('+15550000005', 1000000004000, 1, '1', NULL, 'five', 1);
	`)

	sink := runAnalyzer(t, smsAnalyzer{}, root)
	if len(sink.Messages) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(sink.Messages))
	}
	var defaulted int
	for _, m := range sink.Messages {
		if m.TimestampSec == 0 {
			defaulted++
			if m.Body != "three" {
				t.Errorf("Wrong row got the default timestamp: %q", m.Body)
			}
		}
	}
	if defaulted != 1 {
		t.Errorf("Expected exactly 1 defaulted timestamp, got %d", defaulted)
	}
}

func TestWhatsAppGroupMessageFanOut(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.whatsapp", "wa.db", `
		CREATE TABLE wa_contacts (jid TEXT, number TEXT, given_name TEXT,
			family_name TEXT, display_name TEXT);
		CREATE TABLE group_participants (gjid TEXT, jid TEXT);
		INSERT INTO wa_contacts VALUES ('team@g.us', NULL, NULL, NULL, 'The Team');
		INSERT INTO group_participants VALUES ('team@g.us', 'a');
		INSERT INTO group_participants VALUES ('team@g.us', 'b');
		INSERT INTO group_participants VALUES ('team@g.us', 'c');
	`)
	makeAppDB(t, root, "com.whatsapp", "msgstore.db", `
		CREATE TABLE messages (key_remote_jid TEXT, key_from_me INTEGER,
			data TEXT, timestamp INTEGER, received_timestamp INTEGER,
			remote_resource TEXT, media_url TEXT);
		CREATE TABLE call_log (_id INTEGER PRIMARY KEY, jid_row_id INTEGER,
			timestamp INTEGER, video_call INTEGER, duration INTEGER, from_me INTEGER);
		CREATE TABLE call_log_participant_v2 (call_log_row_id INTEGER, jid_row_id INTEGER);
		CREATE TABLE jid (_id INTEGER PRIMARY KEY, raw_string TEXT);
		INSERT INTO messages VALUES ('team@g.us', 1, 'meeting at noon',
			1609459200000, 1609459201000, '', NULL);
	`)

	sink := runAnalyzer(t, whatsappAnalyzer{}, root)
	if len(sink.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sink.Messages))
	}
	m := sink.Messages[0]
	if m.Direction != record.DirectionOutgoing {
		t.Errorf("Direction = %v, want Outgoing", m.Direction)
	}
	want := []string{"a", "b", "c"}
	if len(m.To) != len(want) {
		t.Fatalf("To = %+v, want %v", m.To, want)
	}
	for i, w := range want {
		if m.To[i].ID != w {
			t.Errorf("To[%d] = %q, want %q", i, m.To[i].ID, w)
		}
	}
	// Outgoing messages carry the send timestamp, not the receive one.
	if m.TimestampSec != 1609459200 {
		t.Errorf("TimestampSec = %d, want 1609459200", m.TimestampSec)
	}
	if m.ThreadID != "team@g.us" {
		t.Errorf("ThreadID = %q, want team@g.us", m.ThreadID)
	}
}

func TestViberOutgoingVideoCall(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.viber.voip", "viber_data", `
		CREATE TABLE phonebookcontact (_id INTEGER PRIMARY KEY, display_name TEXT);
		CREATE TABLE phonebookdata (contact_id INTEGER, data1 TEXT, data2 TEXT, data3 TEXT);
		CREATE TABLE calls (canonized_number TEXT, type INTEGER, duration INTEGER,
			date INTEGER, viber_call_type INTEGER);
		INSERT INTO calls VALUES ('+15557654321', 2, 90, 1609459200000, 4);
	`)

	sink := runAnalyzer(t, viberAnalyzer{}, root)
	if len(sink.CallLogs) != 1 {
		t.Fatalf("Expected 1 call log, got %d", len(sink.CallLogs))
	}
	cl := sink.CallLogs[0]
	if cl.MediaType != record.CallMediaVideo {
		t.Errorf("MediaType = %v, want Video", cl.MediaType)
	}
	if cl.Direction != record.DirectionOutgoing {
		t.Errorf("Direction = %v, want Outgoing", cl.Direction)
	}
	if len(cl.To) != 1 || cl.To[0].ID != "+15557654321" {
		t.Errorf("To = %+v, want +15557654321", cl.To)
	}
	if cl.StartSec != 1609459200 || cl.EndSec != 1609459290 {
		t.Errorf("Start/End = %d/%d, want 1609459200/1609459290", cl.StartSec, cl.EndSec)
	}
}

// Google Maps stores coordinates as 1e6 fixed-point integers.
func TestGoogleMapsFixedPointRoute(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.google.android.apps.maps", "da_destination_history", `
		CREATE TABLE destination_history (time INTEGER, dest_lat INTEGER,
			dest_lng INTEGER, dest_title TEXT, dest_address TEXT,
			source_lat INTEGER, source_lng INTEGER);
		INSERT INTO destination_history VALUES (1609459200000, 37774900,
			-122419400, 'Pier 39', 'Beach St', 37700000, -122400000);
	`)

	sink := runAnalyzer(t, googleMapsAnalyzer{}, root)
	if len(sink.GeoRoutes) != 1 {
		t.Fatalf("Expected 1 route, got %d", len(sink.GeoRoutes))
	}
	r := sink.GeoRoutes[0]
	if len(r.Points) != 2 {
		t.Fatalf("Expected start/end pair, got %d points", len(r.Points))
	}
	dest := r.Points[1]
	if dest.Latitude != 37.7749 {
		t.Errorf("Latitude = %v, want 37.7749", dest.Latitude)
	}
	if dest.Longitude != -122.4194 {
		t.Errorf("Longitude = %v, want -122.4194", dest.Longitude)
	}
	if dest.TimestampSec != 1609459200 {
		t.Errorf("TimestampSec = %d, want 1609459200", dest.TimestampSec)
	}
	if r.Label != "Pier 39" {
		t.Errorf("Label = %q, want Pier 39", r.Label)
	}
}

func TestShareItTransferAsMessage(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.lenovo.anyshare.gps", "history.db", `
		CREATE TABLE history (history_type INTEGER, device_id TEXT,
			device_name TEXT, description TEXT, timestamp INTEGER, file_path TEXT);
		INSERT INTO history VALUES (1, 'dev-42', 'Peer Phone', 'holiday.jpg',
			1609459200000, '/sdcard/received/holiday.jpg');
	`)

	sink := runAnalyzer(t, shareitAnalyzer{}, root)
	if len(sink.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sink.Messages))
	}
	m := sink.Messages[0]
	if m.Direction != record.DirectionIncoming {
		t.Errorf("Direction = %v, want Incoming", m.Direction)
	}
	if m.From == nil || m.From.ID != "dev-42" || m.From.Display != "Peer Phone" {
		t.Errorf("From = %+v", m.From)
	}
	if m.Attachment == nil || m.Attachment.Path != "/sdcard/received/holiday.jpg" {
		t.Errorf("Attachment = %+v", m.Attachment)
	}
}

func TestOruxMapsTrackRoute(t *testing.T) {
	root := t.TempDir()
	makeAppDB(t, root, "com.orux.oruxmaps", "oruxmapstracks.db", `
		CREATE TABLE pois (poilat REAL, poilon REAL, poialt REAL,
			poitime INTEGER, poiname TEXT);
		CREATE TABLE tracks (_id INTEGER PRIMARY KEY, trackname TEXT);
		CREATE TABLE segments (_id INTEGER PRIMARY KEY, segtrack INTEGER);
		CREATE TABLE trackpoints (trkptseg INTEGER, trkptlat REAL,
			trkptlon REAL, trkptalt REAL, trkpttime INTEGER);
		INSERT INTO pois VALUES (37.8, -122.4, 12.5, 1609459200000, 'camp');
		INSERT INTO tracks VALUES (1, 'morning run');
		INSERT INTO segments VALUES (10, 1);
		INSERT INTO trackpoints VALUES (10, 37.80, -122.40, NULL, 1609459200000);
		INSERT INTO trackpoints VALUES (10, 37.81, -122.41, 15.0, 1609459260000);
	`)

	sink := runAnalyzer(t, oruxMapsAnalyzer{}, root)
	if len(sink.GeoPoints) != 1 {
		t.Fatalf("Expected 1 POI point, got %d", len(sink.GeoPoints))
	}
	poi := sink.GeoPoints[0]
	if !poi.HasAltitude || poi.Altitude != 12.5 {
		t.Errorf("POI altitude = %+v", poi)
	}
	if len(sink.GeoRoutes) != 1 {
		t.Fatalf("Expected 1 route, got %d", len(sink.GeoRoutes))
	}
	r := sink.GeoRoutes[0]
	if r.Label != "morning run" || len(r.Points) != 2 {
		t.Fatalf("Route = %+v", r)
	}
	if r.Points[0].HasAltitude {
		t.Errorf("First point has no altitude in the fixture")
	}
	if !r.Points[1].HasAltitude || r.Points[1].Altitude != 15.0 {
		t.Errorf("Second point altitude = %+v", r.Points[1])
	}
}

func TestCatalogNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Catalog() {
		if a.Name() == "" {
			t.Errorf("Analyzer %T has an empty name", a)
		}
		if seen[a.Name()] {
			t.Errorf("Duplicate analyzer name %q", a.Name())
		}
		seen[a.Name()] = true
	}
}
