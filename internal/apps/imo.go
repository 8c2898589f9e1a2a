package apps

import (
	"github.com/tidwall/gjson"

	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// imoAnalyzer parses the IMO databases: imofriends.db holds contacts and
// messages. Message metadata rides in a JSON imdata payload; when a
// message carries media, the local path is buried inside it.
type imoAnalyzer struct{}

const imoPackage = "com.imo.android.imous"

func (imoAnalyzer) Name() string { return "IMO Parser" }

func (a imoAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "imofriends.db", true, imoPackage,
		func(db *appdb.DB, _ string) error {
			if rs, err := db.RunQuery(imoContactsQuery); err != nil {
				sc.Warn(a.Name()+": contact query failed", err)
			} else if err := pumpContacts(sc, a.Name(), rs, imoContactRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": contact iteration failed", err)
			}

			if rs, err := db.RunQuery(imoMessagesQuery); err != nil {
				sc.Warn(a.Name()+": message query failed", err)
			} else if err := pumpMessages(sc, rs, imoMessageRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": message iteration failed", err)
			}
			return nil
		})
}

const imoContactsQuery = `
	SELECT buid,
	       name,
	       phone
	FROM   friends
`

const imoMessagesQuery = `
	SELECT M.buid,
	       F.name,
	       M.last_message,
	       M.timestamp,
	       M.message_type,
	       M.message_read,
	       M.imdata
	FROM   messages AS M
	       LEFT JOIN friends AS F
	              ON M.buid = F.buid
	ORDER  BY M.timestamp DESC
`

// message_type: 1 incoming, 0 outgoing.
var imoDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"0": record.DirectionOutgoing,
}

type imoContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r imoContactRow) ContactName() string { return r.rs.GetString("name").String }
func (r imoContactRow) Phone() string       { return r.rs.GetString("phone").String }

func (r imoContactRow) Extras() []record.ExtraAttribute {
	buid := r.rs.GetString("buid").String
	if buid == "" {
		return nil
	}
	return []record.ExtraAttribute{{Kind: "id", Value: buid}}
}

type imoMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r imoMessageRow) Kind() string { return "IMO Message" }

func (r imoMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("message_type").String, imoDirections)
}

func (r imoMessageRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("buid").String)
	}
	return nil
}

func (r imoMessageRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("buid").String)
	}
	return nil
}

// IMO timestamps count nanoseconds since the epoch.
func (r imoMessageRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("timestamp").Int64, normalize.UnitNanoseconds)
}

func (r imoMessageRow) ReadStatus() record.ReadStatus {
	if r.Direction() != record.DirectionIncoming {
		return record.ReadStatusUnknown
	}
	if read := r.rs.GetLong("message_read"); read.Valid {
		if read.Int64 == 1 {
			return record.ReadStatusRead
		}
		return record.ReadStatusUnread
	}
	return record.ReadStatusUnknown
}

func (r imoMessageRow) Body() string { return r.rs.GetString("last_message").String }

func (r imoMessageRow) ThreadID() string { return r.rs.GetString("buid").String }

// The imdata JSON payload is probed for whichever media path field the
// app version wrote; garbage JSON simply yields no attachment.
func (r imoMessageRow) Attachment() *record.Attachment {
	imdata := r.rs.GetString("imdata").String
	if imdata == "" {
		return nil
	}
	var embedded string
	for _, field := range []string{"local_path", "photo.local_path", "video.local_path", "objects.0.filename"} {
		if v := gjson.Get(imdata, field); v.Exists() && v.String() != "" {
			embedded = v.String()
			break
		}
	}
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{Payload: embedded})
}
