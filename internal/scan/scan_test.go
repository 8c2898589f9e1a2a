package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/Napageneral/commscan/internal/record"
)

type fakeAnalyzer struct {
	name string
	fn   func(sc *Context) error
}

func (f fakeAnalyzer) Name() string              { return f.name }
func (f fakeAnalyzer) Analyze(sc *Context) error { return f.fn(sc) }

func TestRunIsolatesAnalyzerFailures(t *testing.T) {
	sink := &MemorySink{}
	catalog := []Analyzer{
		fakeAnalyzer{"ok-1", func(sc *Context) error {
			sc.PostMessage(record.Message{Kind: "Test"})
			return nil
		}},
		fakeAnalyzer{"broken", func(sc *Context) error {
			return errors.New("corrupt database")
		}},
		fakeAnalyzer{"panicky", func(sc *Context) error {
			panic("unexpected schema")
		}},
		fakeAnalyzer{"ok-2", func(sc *Context) error {
			sc.PostContact(record.Contact{Source: "test", Phone: "+15551234567"})
			return nil
		}},
	}

	o := NewOrchestrator(catalog, Options{})
	summary := o.Run(context.Background(), zap.NewNop(), sink, nil)

	if summary.AnalyzersRun != 4 {
		t.Errorf("AnalyzersRun = %d, want 4", summary.AnalyzersRun)
	}
	if summary.Messages != 1 || summary.Contacts != 1 {
		t.Errorf("Records = %d messages / %d contacts, want 1/1", summary.Messages, summary.Contacts)
	}
	if len(summary.Errors) != 2 {
		t.Errorf("Errors = %v, want 2 itemized entries", summary.Errors)
	}
	if summary.Cancelled {
		t.Error("Summary should not be cancelled")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	catalog := []Analyzer{
		fakeAnalyzer{"first", func(sc *Context) error {
			ran = append(ran, "first")
			cancel()
			return nil
		}},
		fakeAnalyzer{"second", func(sc *Context) error {
			ran = append(ran, "second")
			return nil
		}},
	}

	o := NewOrchestrator(catalog, Options{})
	summary := o.Run(ctx, zap.NewNop(), &MemorySink{}, nil)

	if len(ran) != 1 || ran[0] != "first" {
		t.Errorf("Ran analyzers %v, want only the first", ran)
	}
	if !summary.Cancelled {
		t.Error("Summary should report cancellation")
	}
}

func TestRunWorkerPool(t *testing.T) {
	sink := &MemorySink{}
	var catalog []Analyzer
	for i := 0; i < 8; i++ {
		catalog = append(catalog, fakeAnalyzer{"worker", func(sc *Context) error {
			sc.PostCallLog(record.CallLog{Source: "test"})
			return nil
		}})
	}

	o := NewOrchestrator(catalog, Options{Workers: 3})
	summary := o.Run(context.Background(), zap.NewNop(), sink, nil)

	if summary.CallLogs != 8 {
		t.Errorf("CallLogs = %d, want 8", summary.CallLogs)
	}
	if summary.AnalyzersRun != 8 {
		t.Errorf("AnalyzersRun = %d, want 8", summary.AnalyzersRun)
	}
}

func TestContactPolicy(t *testing.T) {
	sink := &MemorySink{}
	sc := NewContext(context.Background(), zap.NewNop(), sink, nil)

	// Name-only contacts pass under the default policy.
	sc.PostContact(record.Contact{Source: "test", DisplayName: "Only Name"})
	// Contacts with neither a name nor a contact method are dropped.
	sc.PostContact(record.Contact{Source: "test"})
	if len(sink.Contacts) != 1 {
		t.Fatalf("Contacts = %d, want 1", len(sink.Contacts))
	}

	sc.EmitNameOnlyContacts = false
	sc.PostContact(record.Contact{Source: "test", DisplayName: "Dropped"})
	sc.PostContact(record.Contact{Source: "test", DisplayName: "Kept", Phone: "+15550000000"})
	if len(sink.Contacts) != 2 {
		t.Fatalf("Contacts = %d, want 2 after policy change", len(sink.Contacts))
	}
}

func TestDirLocatorDiscovery(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []string{
		"/src/data/com.whatsapp/databases/msgstore.db",
		"/src/data/com.whatsapp/databases/msgstore.db-journal",
		"/src/data/com.other/databases/msgstore.db",
		"/src/data/com.skype.raider/databases/live:alice.db",
	}
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}
	loc := NewDirLocatorFs(fs, "/src")

	got, err := loc.FindCandidateFiles("msgstore.db", true, "com.whatsapp")
	if err != nil {
		t.Fatalf("FindCandidateFiles failed: %v", err)
	}
	if len(got) != 1 || got[0] != "/src/data/com.whatsapp/databases/msgstore.db" {
		t.Errorf("Exact match = %v, want the whatsapp msgstore only", got)
	}

	// Substring matching, the way Skype's live:<id>.db files are found.
	got, err = loc.FindCandidateFiles("live:", false, "com.skype.raider")
	if err != nil {
		t.Fatalf("FindCandidateFiles failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Substring match = %v, want 1 file", got)
	}

	// No match is zero candidates, not an error.
	got, err = loc.FindCandidateFiles("viber_messages", true, "com.viber.voip")
	if err != nil || len(got) != 0 {
		t.Errorf("No-match discovery = (%v, %v), want empty and nil", got, err)
	}
}

func TestDirLocatorMaterialize(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := "/src/databases/viber_data"
	if err := afero.WriteFile(fs, src, []byte("sqlite-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := afero.WriteFile(fs, src+"-wal", []byte("wal-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write wal fixture: %v", err)
	}

	loc := NewDirLocatorFs(fs, "/src")
	local, cleanup, err := loc.MaterializeLocally(src)
	if err != nil {
		t.Fatalf("MaterializeLocally failed: %v", err)
	}

	data, err := afero.ReadFile(afero.NewOsFs(), local)
	if err != nil || string(data) != "sqlite-bytes" {
		t.Errorf("Materialized copy = (%q, %v)", data, err)
	}
	wal, err := afero.ReadFile(afero.NewOsFs(), local+"-wal")
	if err != nil || string(wal) != "wal-bytes" {
		t.Errorf("WAL sidecar = (%q, %v)", wal, err)
	}

	cleanup()
	if ok, _ := afero.Exists(afero.NewOsFs(), local); ok {
		t.Error("Cleanup left the materialized copy behind")
	}
}
