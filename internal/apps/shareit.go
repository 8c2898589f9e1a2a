package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// shareitAnalyzer parses the SHAREit transfer history. Each transfer is
// normalized as a message between the paired devices with the transferred
// file as its attachment.
type shareitAnalyzer struct{}

const shareitPackage = "com.lenovo.anyshare.gps"

func (shareitAnalyzer) Name() string { return "ShareIt Parser" }

func (a shareitAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "history.db", true, shareitPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(shareitQuery)
			if err != nil {
				return err
			}
			return pumpMessages(sc, rs, shareitRow{rs: rs})
		})
}

const shareitQuery = `
	SELECT history_type,
	       device_id,
	       device_name,
	       description,
	       timestamp,
	       file_path
	FROM   history
	ORDER  BY timestamp DESC
`

// history_type: 1 incoming transfer, 2 outgoing.
var shareitDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
}

type shareitRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r shareitRow) Kind() string { return "ShareIt Message" }

func (r shareitRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("history_type").String, shareitDirections)
}

func (r shareitRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return r.device()
	}
	return nil
}

func (r shareitRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		if addr := r.device(); addr != nil {
			return []record.Address{*addr}
		}
	}
	return nil
}

func (r shareitRow) device() *record.Address {
	addr := adapter.Addr(r.rs.GetString("device_id").String)
	if addr != nil {
		addr.Display = r.rs.GetString("device_name").String
	}
	return addr
}

func (r shareitRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("timestamp").Int64, normalize.UnitMilliseconds)
}

func (r shareitRow) Body() string { return r.rs.GetString("description").String }

func (r shareitRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Explicit: r.rs.GetString("file_path").String,
	})
}
