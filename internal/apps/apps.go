// Package apps is the per-application analyzer catalog. Each analyzer owns
// one app's database discovery pattern, its SQL text, and its row-adapter
// wiring; entries are independent of each other and safe to run
// concurrently. Failures are recovered at the narrowest scope that keeps
// the scan moving: a bad field costs a default, a bad query costs its
// records, a bad file costs that file.
package apps

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// Catalog returns the full analyzer list in a stable order.
func Catalog() []scan.Analyzer {
	return []scan.Analyzer{
		smsAnalyzer{},
		callLogAnalyzer{},
		contactsAnalyzer{},
		whatsappAnalyzer{},
		viberAnalyzer{},
		skypeAnalyzer{},
		lineAnalyzer{},
		textnowAnalyzer{},
		tangoAnalyzer{},
		imoAnalyzer{},
		shareitAnalyzer{},
		xenderAnalyzer{},
		zapyaAnalyzer{},
		googleMapsAnalyzer{},
		browserLocationAnalyzer{},
		oruxMapsAnalyzer{},
	}
}

// ByName filters the catalog down to the named analyzers; an unknown name
// is an error so typos fail loudly rather than silently scanning nothing.
func ByName(names []string) ([]scan.Analyzer, error) {
	if len(names) == 0 {
		return Catalog(), nil
	}
	byName := make(map[string]scan.Analyzer)
	for _, a := range Catalog() {
		byName[a.Name()] = a
	}
	var out []scan.Analyzer
	for _, n := range names {
		a, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown analyzer %q", n)
		}
		out = append(out, a)
	}
	return out, nil
}

// withDatabases runs fn against every discovered, materialized, opened
// database matching the pattern. Discovery finding nothing is not an
// error; open failures cost only that file.
func withDatabases(sc *scan.Context, analyzer, pattern string, exact bool, pkg string, fn func(db *appdb.DB, sourcePath string) error) error {
	candidates, err := sc.Locator().FindCandidateFiles(pattern, exact, pkg)
	if err != nil {
		return fmt.Errorf("discovery for %s: %w", pattern, err)
	}
	for _, sourcePath := range candidates {
		if sc.Cancelled() {
			return nil
		}
		runDatabase(sc, analyzer, sourcePath, fn)
	}
	return nil
}

func runDatabase(sc *scan.Context, analyzer, sourcePath string, fn func(db *appdb.DB, sourcePath string) error) {
	local, cleanup, err := sc.Locator().MaterializeLocally(sourcePath)
	if err != nil {
		sc.Warn(analyzer+": failed to materialize database", err, zap.String("path", sourcePath))
		return
	}
	defer cleanup()

	db, err := appdb.Open(local)
	if err != nil {
		sc.Warn(analyzer+": failed to open database", err, zap.String("path", sourcePath))
		return
	}
	defer db.Close()

	if err := fn(db, sourcePath); err != nil {
		sc.Warn(analyzer+": database processing failed", err, zap.String("path", sourcePath))
	}
}

// materializeSibling produces a local copy of a database that lives next
// to sourcePath (WhatsApp wa.db beside msgstore.db, Line naver_line beside
// call_history), for cross-database ATTACH joins.
func materializeSibling(sc *scan.Context, sourcePath, name string) (string, func(), error) {
	sibling := filepath.Join(filepath.Dir(sourcePath), name)
	return sc.Locator().MaterializeLocally(sibling)
}

// pumpContacts drives a contact adapter over its cursor, one record per
// row. Field-level conversion failures are logged at debug and the row is
// still emitted with defaults.
func pumpContacts(sc *scan.Context, source string, rs *rowset.Rows, src adapter.ContactSource) error {
	defer rs.Close()
	for rs.Next() {
		if sc.Cancelled() {
			return nil
		}
		sc.PostContact(adapter.CollectContact(source, src))
		logFieldErrors(sc, source, rs)
	}
	return rs.Err()
}

// pumpMessages drives a message adapter over its cursor.
func pumpMessages(sc *scan.Context, rs *rowset.Rows, src adapter.MessageSource) error {
	defer rs.Close()
	for rs.Next() {
		if sc.Cancelled() {
			return nil
		}
		sc.PostMessage(adapter.CollectMessage(src))
		logFieldErrors(sc, src.Kind(), rs)
	}
	return rs.Err()
}

// pumpCallLogs drives a call-log adapter over its cursor.
func pumpCallLogs(sc *scan.Context, source string, rs *rowset.Rows, src adapter.CallSource) error {
	defer rs.Close()
	for rs.Next() {
		if sc.Cancelled() {
			return nil
		}
		sc.PostCallLog(adapter.CollectCallLog(source, src))
		logFieldErrors(sc, source, rs)
	}
	return rs.Err()
}

func logFieldErrors(sc *scan.Context, source string, rs *rowset.Rows) {
	for _, fe := range rs.FieldErrors() {
		sc.Log().Debug("row field defaulted",
			zap.String("source", source),
			zap.String("column", fe.Column),
			zap.Error(fe.Err))
	}
}
