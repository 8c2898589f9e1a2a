package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// lineAnalyzer parses the Line databases: naver_line holds contacts and
// chat history, call_history holds calls. Users and groups both go by a
// "mid"; group membership is unioned with the contact list into one
// relation keyed by chat/caller mid. The call query attaches naver_line
// to resolve member names.
type lineAnalyzer struct{}

const linePackage = "jp.naver.line.android"

func (lineAnalyzer) Name() string { return "Line Parser" }

func (a lineAnalyzer) Analyze(sc *scan.Context) error {
	err := withDatabases(sc, a.Name(), "naver_line", true, linePackage,
		func(db *appdb.DB, _ string) error {
			if rs, err := db.RunQuery(lineContactsQuery); err != nil {
				sc.Warn(a.Name()+": contact query failed", err)
			} else if err := pumpContacts(sc, a.Name(), rs, lineContactRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": contact iteration failed", err)
			}

			if rs, err := db.RunQuery(lineMessagesQuery); err != nil {
				sc.Warn(a.Name()+": message query failed", err)
			} else if err := pumpMessages(sc, rs, lineMessageRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": message iteration failed", err)
			}
			return nil
		})
	if err != nil {
		sc.Warn(a.Name()+": naver_line discovery failed", err)
	}

	return withDatabases(sc, a.Name(), "call_history", true, linePackage,
		func(db *appdb.DB, sourcePath string) error {
			naverLocal, cleanup, err := materializeSibling(sc, sourcePath, "naver_line")
			if err != nil {
				return err
			}
			defer cleanup()
			if err := db.Attach(naverLocal, "naver"); err != nil {
				return err
			}

			rs, err := db.RunQuery(lineCallsQuery)
			if err != nil {
				return err
			}
			return pumpCallLogs(sc, a.Name(), rs, lineCallRow{rs: rs})
		})
}

const lineContactsQuery = `
	SELECT m_id,
	       server_name
	FROM   contacts
`

// Sticker rows (attachement_type 6) carry no communication content.
const lineMessagesQuery = `
	SELECT contact_list_with_groups.name,
	       contact_list_with_groups.id,
	       contact_list_with_groups.members,
	       contact_list_with_groups.member_names,
	       CH.from_mid,
	       C.server_name AS from_name,
	       CH.content,
	       CH.created_time,
	       CH.attachement_type,
	       CH.attachement_local_uri,
	       CH.status
	FROM   (SELECT G.name,
	               group_members.id,
	               group_members.members,
	               group_members.member_names
	        FROM   (SELECT id,
	                       group_concat(M.m_id) AS members,
	                       group_concat(replace(C.server_name,
	                                            ",",
	                                            "")) AS member_names
	                FROM   membership AS M
	                       JOIN contacts AS C
	                         ON M.m_id = C.m_id
	                GROUP  BY id) AS group_members
	               JOIN groups AS G
	                 ON G.id = group_members.id
	        UNION
	        SELECT server_name,
	               m_id,
	               NULL,
	               NULL
	        FROM   contacts) AS contact_list_with_groups
	       JOIN chat_history AS CH
	         ON CH.chat_id = contact_list_with_groups.id
	       LEFT JOIN contacts AS C
	         ON C.m_id = CH.from_mid
	WHERE  attachement_type != 6
`

const lineCallsQuery = `
	SELECT Substr(CH.call_type, -1)               AS direction,
	       CH.start_time                          AS start_time,
	       CH.end_time                            AS end_time,
	       contacts_list_with_groups.members      AS group_members,
	       contacts_list_with_groups.member_names AS names,
	       CH.caller_mid,
	       CH.voip_type                           AS call_type,
	       CH.voip_gc_media_type                  AS group_call_type
	FROM   (SELECT id,
	               Group_concat(M.m_id)                          AS members,
	               Group_concat(Replace(C.server_name, ",", "")) AS member_names
	        FROM   membership AS M
	               JOIN naver.contacts AS C
	                 ON M.m_id = C.m_id
	        GROUP  BY id
	        UNION
	        SELECT m_id,
	               NULL,
	               server_name
	        FROM   naver.contacts) AS contacts_list_with_groups
	       JOIN call_history AS CH
	         ON CH.caller_mid = contacts_list_with_groups.id
`

// The direction marker is the final letter of call_type.
var lineCallDirections = normalize.DirectionTable{
	"I": record.DirectionIncoming,
	"O": record.DirectionOutgoing,
}

// chat_history.status 1 marks incoming; 3 and 7 are outgoing states.
var lineMessageDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"3": record.DirectionOutgoing,
	"7": record.DirectionOutgoing,
}

type lineContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r lineContactRow) ContactName() string { return r.rs.GetString("server_name").String }

func (r lineContactRow) Extras() []record.ExtraAttribute {
	mid := r.rs.GetString("m_id").String
	if mid == "" {
		return nil
	}
	return []record.ExtraAttribute{{Kind: "id", Value: mid}}
}

type lineCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r lineCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, lineCallDirections)
}

func (r lineCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("caller_mid").String)
	}
	return nil
}

func (r lineCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(
			r.rs.GetString("group_members").String,
			r.rs.GetString("caller_mid").String)
	}
	return nil
}

// Line stores call times as millisecond strings.
func (r lineCallRow) Start() int64 {
	return normalize.ParseEpochSeconds(r.rs.GetString("start_time").String, normalize.UnitMilliseconds)
}

func (r lineCallRow) End() int64 {
	return normalize.ParseEpochSeconds(r.rs.GetString("end_time").String, normalize.UnitMilliseconds)
}

func (r lineCallRow) MediaType() record.CallMediaType {
	switch r.rs.GetString("call_type").String {
	case "V":
		return record.CallMediaVideo
	case "A":
		return record.CallMediaAudio
	case "G":
		switch r.rs.GetString("group_call_type").String {
		case "VIDEO":
			return record.CallMediaVideo
		case "AUDIO":
			return record.CallMediaAudio
		}
	}
	return record.CallMediaUnknown
}

type lineMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r lineMessageRow) Kind() string { return "Line Message" }

func (r lineMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("status").String, lineMessageDirections)
}

func (r lineMessageRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("from_mid").String)
	}
	return nil
}

func (r lineMessageRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(r.rs.GetString("members").String, r.rs.GetString("id").String)
	}
	return nil
}

func (r lineMessageRow) Time() int64 {
	return normalize.ParseEpochSeconds(r.rs.GetString("created_time").String, normalize.UnitMilliseconds)
}

func (r lineMessageRow) Body() string { return r.rs.GetString("content").String }

func (r lineMessageRow) ThreadID() string {
	if r.rs.GetString("members").Valid {
		return r.rs.GetString("id").String
	}
	return ""
}

func (r lineMessageRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Local: r.rs.GetString("attachement_local_uri").String,
	})
}
