package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// textnowAnalyzer parses the TextNow database. Messages and calls share
// the messages table: call records are messages whose type is 100, with
// the call duration stored in the text column. Group conversations keep
// their member list on the groups table.
type textnowAnalyzer struct{}

const textnowPackage = "com.enflick.android.TextNow"

func (textnowAnalyzer) Name() string { return "TextNow Parser" }

func (a textnowAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "textnow_data.db", true, textnowPackage,
		func(db *appdb.DB, _ string) error {
			if rs, err := db.RunQuery(textnowContactsQuery); err != nil {
				sc.Warn(a.Name()+": contact query failed", err)
			} else if err := pumpContacts(sc, a.Name(), rs, textnowContactRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": contact iteration failed", err)
			}

			if rs, err := db.RunQuery(textnowMessagesQuery); err != nil {
				sc.Warn(a.Name()+": message query failed", err)
			} else if err := pumpMessages(sc, rs, textnowMessageRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": message iteration failed", err)
			}

			if rs, err := db.RunQuery(textnowCallsQuery); err != nil {
				sc.Warn(a.Name()+": call query failed", err)
			} else if err := pumpCallLogs(sc, a.Name(), rs, textnowCallRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": call iteration failed", err)
			}
			return nil
		})
}

const textnowContactsQuery = `
	SELECT contact_value,
	       contact_name
	FROM   contacts
`

const textnowMessagesQuery = `
	SELECT M.contact_value,
	       G.title AS group_title,
	       G.members,
	       M.message_direction,
	       M.message_text,
	       M.read,
	       M.date,
	       M.attach
	FROM   messages AS M
	       LEFT JOIN (SELECT contact_value AS g_id,
	                         title,
	                         group_concat(member_contact_value) AS members
	                  FROM   groups
	                         JOIN group_members
	                           ON contact_value = group_contact_value
	                  GROUP  BY contact_value) AS G
	              ON M.contact_value = G.g_id
	WHERE  M.message_type != 100
	ORDER  BY M.date DESC
`

const textnowCallsQuery = `
	SELECT contact_value,
	       message_direction,
	       message_text,
	       date
	FROM   messages
	WHERE  message_type == 100
	ORDER  BY date DESC
`

// message_direction: 1 incoming, 2 outgoing.
var textnowDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
}

type textnowContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r textnowContactRow) ContactName() string { return r.rs.GetString("contact_name").String }
func (r textnowContactRow) Phone() string       { return r.rs.GetString("contact_value").String }

type textnowMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r textnowMessageRow) Kind() string { return "TextNow Message" }

func (r textnowMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("message_direction").String, textnowDirections)
}

func (r textnowMessageRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("contact_value").String)
	}
	return nil
}

func (r textnowMessageRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(r.rs.GetString("members").String, r.rs.GetString("contact_value").String)
	}
	return nil
}

func (r textnowMessageRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("date").Int64, normalize.UnitMilliseconds)
}

func (r textnowMessageRow) ReadStatus() record.ReadStatus {
	if r.Direction() != record.DirectionIncoming {
		return record.ReadStatusUnknown
	}
	if read := r.rs.GetLong("read"); read.Valid {
		if read.Int64 == 1 {
			return record.ReadStatusRead
		}
		return record.ReadStatusUnread
	}
	return record.ReadStatusUnknown
}

func (r textnowMessageRow) Body() string { return r.rs.GetString("message_text").String }

func (r textnowMessageRow) ThreadID() string {
	if r.rs.GetString("members").Valid {
		return r.rs.GetString("contact_value").String
	}
	return ""
}

func (r textnowMessageRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Explicit: r.rs.GetString("attach").String,
	})
}

type textnowCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r textnowCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("message_direction").String, textnowDirections)
}

func (r textnowCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("contact_value").String)
	}
	return nil
}

func (r textnowCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("contact_value").String)
	}
	return nil
}

func (r textnowCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("date").Int64, normalize.UnitMilliseconds)
}

// For call rows the text column holds the duration in seconds; a
// malformed value costs the duration, not the record.
func (r textnowCallRow) End() int64 {
	duration := normalize.ParseEpochSeconds(r.rs.GetString("message_text").String, normalize.UnitSeconds)
	return r.Start() + duration
}
