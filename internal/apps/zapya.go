package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// zapyaAnalyzer parses the Zapya transfer database.
type zapyaAnalyzer struct{}

const zapyaPackage = "com.dewmobile.kuaiya.play"

func (zapyaAnalyzer) Name() string { return "Zapya Parser" }

func (a zapyaAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "transfer20.db", true, zapyaPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(zapyaQuery)
			if err != nil {
				return err
			}
			return pumpMessages(sc, rs, zapyaRow{rs: rs})
		})
}

const zapyaQuery = `
	SELECT device,
	       name,
	       direction,
	       createtime,
	       path,
	       title
	FROM   transfer
	ORDER  BY createtime DESC
`

// direction: 1 outgoing transfer, 0 incoming.
var zapyaDirections = normalize.DirectionTable{
	"0": record.DirectionIncoming,
	"1": record.DirectionOutgoing,
}

type zapyaRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r zapyaRow) Kind() string { return "Zapya Message" }

func (r zapyaRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, zapyaDirections)
}

func (r zapyaRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return r.peer()
	}
	return nil
}

func (r zapyaRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		if addr := r.peer(); addr != nil {
			return []record.Address{*addr}
		}
	}
	return nil
}

func (r zapyaRow) peer() *record.Address {
	addr := adapter.Addr(r.rs.GetString("device").String)
	if addr != nil {
		addr.Display = r.rs.GetString("name").String
	}
	return addr
}

func (r zapyaRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("createtime").Int64, normalize.UnitMilliseconds)
}

func (r zapyaRow) Body() string { return r.rs.GetString("title").String }

func (r zapyaRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Explicit: r.rs.GetString("path").String,
	})
}
