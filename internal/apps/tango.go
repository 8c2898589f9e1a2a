package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// tangoAnalyzer parses the Tango messages database (tc.db). Message
// bodies are stored Base64-wrapped inside a binary payload envelope; the
// normalizer unwraps the printable text.
type tangoAnalyzer struct{}

const tangoPackage = "com.sgiggle.production"

func (tangoAnalyzer) Name() string { return "Tango Parser" }

func (a tangoAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "tc.db", true, tangoPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(tangoMessagesQuery)
			if err != nil {
				return err
			}
			return pumpMessages(sc, rs, tangoMessageRow{rs: rs})
		})
}

const tangoMessagesQuery = `
	SELECT conv_id,
	       create_time,
	       direction,
	       payload
	FROM   messages
	ORDER  BY create_time DESC
`

// direction: 1 incoming, 2 outgoing.
var tangoDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
}

type tangoMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r tangoMessageRow) Kind() string { return "Tango Message" }

func (r tangoMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, tangoDirections)
}

func (r tangoMessageRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("conv_id").String)
	}
	return nil
}

func (r tangoMessageRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("conv_id").String)
	}
	return nil
}

func (r tangoMessageRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("create_time").Int64, normalize.UnitMilliseconds)
}

func (r tangoMessageRow) Body() string {
	return normalize.DecodeObfuscatedText(r.rs.GetString("payload").String)
}

func (r tangoMessageRow) ThreadID() string { return r.rs.GetString("conv_id").String }
