package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// whatsappAnalyzer parses the WhatsApp databases. Contacts live in wa.db;
// messages and call logs live in msgstore.db. For group messages the
// message query attaches wa.db and builds one "contact-or-group" relation:
// every jid paired with the comma-joined member list of its group, NULL
// for 1:1 conversations. Single and group calls are two separate queries
// because group participation lives in its own join table.
type whatsappAnalyzer struct{}

const whatsappPackage = "com.whatsapp"

func (whatsappAnalyzer) Name() string { return "WhatsApp Parser" }

func (a whatsappAnalyzer) Analyze(sc *scan.Context) error {
	err := withDatabases(sc, a.Name(), "wa.db", true, whatsappPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(whatsappContactsQuery)
			if err != nil {
				return err
			}
			return pumpContacts(sc, a.Name(), rs, whatsappContactRow{rs: rs})
		})
	if err != nil {
		sc.Warn(a.Name()+": contact discovery failed", err)
	}

	return withDatabases(sc, a.Name(), "msgstore.db", true, whatsappPackage,
		func(db *appdb.DB, sourcePath string) error {
			a.parseCallLogs(sc, db)
			a.parseMessages(sc, db, sourcePath)
			return nil
		})
}

func (a whatsappAnalyzer) parseCallLogs(sc *scan.Context, db *appdb.DB) {
	if rs, err := db.RunQuery(whatsappSingleCallsQuery); err != nil {
		sc.Warn(a.Name()+": single call query failed", err)
	} else if err := pumpCallLogs(sc, a.Name(), rs, whatsappSingleCallRow{rs: rs}); err != nil {
		sc.Warn(a.Name()+": single call iteration failed", err)
	}

	if rs, err := db.RunQuery(whatsappGroupCallsQuery); err != nil {
		sc.Warn(a.Name()+": group call query failed", err)
	} else if err := pumpCallLogs(sc, a.Name(), rs, whatsappGroupCallRow{rs: rs}); err != nil {
		sc.Warn(a.Name()+": group call iteration failed", err)
	}
}

func (a whatsappAnalyzer) parseMessages(sc *scan.Context, db *appdb.DB, sourcePath string) {
	waLocal, cleanup, err := materializeSibling(sc, sourcePath, "wa.db")
	if err != nil {
		sc.Warn(a.Name()+": wa.db not available for group join", err)
		return
	}
	defer cleanup()

	if err := db.Attach(waLocal, "wadb"); err != nil {
		sc.Warn(a.Name()+": failed to attach wa.db", err)
		return
	}

	rs, err := db.RunQuery(whatsappMessagesQuery)
	if err != nil {
		sc.Warn(a.Name()+": message query failed", err)
		return
	}
	if err := pumpMessages(sc, rs, whatsappMessageRow{rs: rs}); err != nil {
		sc.Warn(a.Name()+": message iteration failed", err)
	}
}

const whatsappContactsQuery = `
	SELECT jid,
	       CASE
	         WHEN WC.number IS NULL THEN WC.jid
	         WHEN WC.number == "" THEN WC.jid
	         ELSE WC.number
	       END number,
	       CASE
	         WHEN WC.given_name IS NULL
	              AND WC.family_name IS NULL
	              AND WC.display_name IS NULL THEN WC.jid
	         WHEN WC.given_name IS NULL
	              AND WC.family_name IS NULL THEN WC.display_name
	         WHEN WC.given_name IS NULL THEN WC.family_name
	         WHEN WC.family_name IS NULL THEN WC.given_name
	         ELSE WC.given_name
	              || " "
	              || WC.family_name
	       END name
	FROM   wa_contacts AS WC
`

const whatsappSingleCallsQuery = `
	SELECT CL.timestamp,
	       CL.video_call,
	       CL.duration,
	       J.raw_string AS num,
	       CL.from_me
	FROM   call_log AS CL
	       JOIN jid AS J
	         ON J._id = CL.jid_row_id
	WHERE  CL._id NOT IN (SELECT DISTINCT call_log_row_id
	                      FROM   call_log_participant_v2)
`

const whatsappGroupCallsQuery = `
	SELECT CL.video_call,
	       CL.timestamp,
	       CL.duration,
	       CL.from_me,
	       J1.raw_string AS from_id,
	       group_concat(J.raw_string) AS group_members
	FROM   call_log_participant_v2 AS CLP
	       JOIN call_log AS CL
	         ON CL._id = CLP.call_log_row_id
	       JOIN jid AS J
	         ON J._id = CLP.jid_row_id
	       JOIN jid AS J1
	         ON J1._id = CL.jid_row_id
	GROUP  BY CL._id
`

const whatsappMessagesQuery = `
	SELECT M.key_remote_jid  AS id,
	       contact_info.recipients,
	       key_from_me       AS direction,
	       CASE
	         WHEN M.data IS NULL THEN ""
	         ELSE M.data
	       END AS content,
	       M.timestamp       AS send_timestamp,
	       M.received_timestamp,
	       M.remote_resource AS group_sender,
	       M.media_url       AS attachment
	FROM   (SELECT jid,
	               recipients
	        FROM   wadb.wa_contacts AS WC
	               LEFT JOIN (SELECT gjid,
	                                 group_concat(CASE
	                                                WHEN jid == "" THEN NULL
	                                                ELSE jid
	                                              END) AS recipients
	                          FROM   group_participants
	                          GROUP  BY gjid) AS group_map
	                      ON WC.jid = group_map.gjid
	        GROUP  BY jid) AS contact_info
	       JOIN messages AS M
	         ON M.key_remote_jid = contact_info.jid
`

// from_me: 0 incoming, 1 outgoing.
var whatsappDirections = normalize.DirectionTable{
	"0": record.DirectionIncoming,
	"1": record.DirectionOutgoing,
}

type whatsappContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r whatsappContactRow) ContactName() string { return r.rs.GetString("name").String }
func (r whatsappContactRow) Phone() string       { return r.rs.GetString("number").String }

func (r whatsappContactRow) Extras() []record.ExtraAttribute {
	jid := r.rs.GetString("jid").String
	if jid == "" {
		return nil
	}
	return []record.ExtraAttribute{{Kind: "id", Value: jid}}
}

type whatsappSingleCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r whatsappSingleCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("from_me").String, whatsappDirections)
}

func (r whatsappSingleCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("num").String)
	}
	return nil
}

func (r whatsappSingleCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("num").String)
	}
	return nil
}

func (r whatsappSingleCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("timestamp").Int64, normalize.UnitMilliseconds)
}

func (r whatsappSingleCallRow) End() int64 {
	return r.Start() + r.rs.GetLong("duration").Int64
}

func (r whatsappSingleCallRow) MediaType() record.CallMediaType {
	if r.rs.GetLong("video_call").Int64 == 1 {
		return record.CallMediaVideo
	}
	return record.CallMediaAudio
}

type whatsappGroupCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r whatsappGroupCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("from_me").String, whatsappDirections)
}

func (r whatsappGroupCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("from_id").String)
	}
	return nil
}

func (r whatsappGroupCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(r.rs.GetString("group_members").String, "")
	}
	return nil
}

func (r whatsappGroupCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("timestamp").Int64, normalize.UnitMilliseconds)
}

func (r whatsappGroupCallRow) End() int64 {
	return r.Start() + r.rs.GetLong("duration").Int64
}

func (r whatsappGroupCallRow) MediaType() record.CallMediaType {
	if r.rs.GetLong("video_call").Int64 == 1 {
		return record.CallMediaVideo
	}
	return record.CallMediaAudio
}

type whatsappMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r whatsappMessageRow) Kind() string { return "WhatsApp Message" }

func (r whatsappMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, whatsappDirections)
}

func (r whatsappMessageRow) From() *record.Address {
	if r.Direction() != record.DirectionIncoming {
		return nil
	}
	// In a group chat the conversation jid is the group; the actual
	// sender arrives in remote_resource.
	groupSender := r.rs.GetString("group_sender").String
	if groupSender != "" && r.rs.GetString("recipients").Valid {
		return adapter.Addr(groupSender)
	}
	return adapter.Addr(r.rs.GetString("id").String)
}

func (r whatsappMessageRow) To() []record.Address {
	if r.Direction() != record.DirectionOutgoing {
		return nil
	}
	return adapter.FanOut(r.rs.GetString("recipients").String, r.rs.GetString("id").String)
}

// The send timestamp is only authoritative for outgoing messages;
// incoming ones carry the receive time.
func (r whatsappMessageRow) Time() int64 {
	col := "received_timestamp"
	if r.Direction() == record.DirectionOutgoing {
		col = "send_timestamp"
	}
	return normalize.ToEpochSeconds(r.rs.GetLong(col).Int64, normalize.UnitMilliseconds)
}

func (r whatsappMessageRow) Body() string { return r.rs.GetString("content").String }

func (r whatsappMessageRow) ThreadID() string {
	if r.rs.GetString("recipients").Valid {
		return r.rs.GetString("id").String
	}
	return ""
}

func (r whatsappMessageRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Original: r.rs.GetString("attachment").String,
	})
}
