package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// callLogAnalyzer parses the native dialer call history. Depending on the
// OS version the calls table lives in contacts2.db or a dedicated
// calllog.db; both are tried and each file stands alone.
type callLogAnalyzer struct{}

func (callLogAnalyzer) Name() string { return "Android Call Log Parser" }

func (a callLogAnalyzer) Analyze(sc *scan.Context) error {
	for _, pattern := range []string{"contacts2.db", "calllog.db"} {
		err := withDatabases(sc, a.Name(), pattern, true, "com.android.providers",
			func(db *appdb.DB, _ string) error {
				if !db.HasTable("calls") {
					return nil
				}
				rs, err := db.RunQuery(callsQuery)
				if err != nil {
					return err
				}
				return pumpCallLogs(sc, a.Name(), rs, nativeCallRow{rs: rs})
			})
		if err != nil {
			sc.Warn(a.Name()+": discovery failed", err)
		}
	}
	return nil
}

const callsQuery = `
	SELECT number,
	       date,
	       duration,
	       type,
	       name
	FROM   calls
	ORDER  BY date DESC
`

// Missed (3) collapses into Incoming: the call arrived at the device
// either way.
var nativeCallDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
	"3": record.DirectionIncoming,
}

type nativeCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r nativeCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("type").String, nativeCallDirections)
}

func (r nativeCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return r.number()
	}
	return nil
}

func (r nativeCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		if addr := r.number(); addr != nil {
			return []record.Address{*addr}
		}
	}
	return nil
}

func (r nativeCallRow) number() *record.Address {
	addr := adapter.Addr(r.rs.GetString("number").String)
	if addr != nil {
		addr.Display = r.rs.GetString("name").String
	}
	return addr
}

func (r nativeCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("date").Int64, normalize.UnitMilliseconds)
}

func (r nativeCallRow) End() int64 {
	return r.Start() + r.rs.GetLong("duration").Int64
}
