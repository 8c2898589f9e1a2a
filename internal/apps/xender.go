package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// xenderAnalyzer parses the Xender transfer history database.
type xenderAnalyzer struct{}

const xenderPackage = "cn.xender"

func (xenderAnalyzer) Name() string { return "Xender Parser" }

func (a xenderAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "trans-history-db", true, xenderPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(xenderQuery)
			if err != nil {
				return err
			}
			return pumpMessages(sc, rs, xenderRow{rs: rs})
		})
}

const xenderQuery = `
	SELECT f_path,
	       f_display_name,
	       f_size_str,
	       c_direction,
	       c_session_id,
	       f_create_time,
	       s_name,
	       s_device_id
	FROM   new_history
	ORDER  BY f_create_time DESC
`

// c_direction: 1 incoming transfer, 2 outgoing.
var xenderDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
}

type xenderRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r xenderRow) Kind() string { return "Xender Message" }

func (r xenderRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("c_direction").String, xenderDirections)
}

func (r xenderRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return r.peer()
	}
	return nil
}

func (r xenderRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		if addr := r.peer(); addr != nil {
			return []record.Address{*addr}
		}
	}
	return nil
}

func (r xenderRow) peer() *record.Address {
	addr := adapter.Addr(r.rs.GetString("s_device_id").String)
	if addr != nil {
		addr.Display = r.rs.GetString("s_name").String
	}
	return addr
}

func (r xenderRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("f_create_time").Int64, normalize.UnitMilliseconds)
}

func (r xenderRow) ThreadID() string { return r.rs.GetString("c_session_id").String }

func (r xenderRow) Body() string { return r.rs.GetString("f_display_name").String }

func (r xenderRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Explicit: r.rs.GetString("f_path").String,
	})
}
