package apps

import (
	"strings"

	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// viberAnalyzer parses the Viber databases: viber_data holds contacts and
// the call log, viber_messages holds conversations. Messages are joined
// through a participant self-join that yields, for every sender, the
// comma-joined list of everyone else in the conversation.
type viberAnalyzer struct{}

const viberPackage = "com.viber.voip"

func (viberAnalyzer) Name() string { return "Viber Parser" }

func (a viberAnalyzer) Analyze(sc *scan.Context) error {
	err := withDatabases(sc, a.Name(), "viber_data", true, viberPackage,
		func(db *appdb.DB, _ string) error {
			// Contacts and call log are independent queries; one failing
			// must not cost the other its records.
			if rs, err := db.RunQuery(viberContactsQuery); err != nil {
				sc.Warn(a.Name()+": contact query failed", err)
			} else if err := pumpContacts(sc, a.Name(), rs, viberContactRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": contact iteration failed", err)
			}

			if rs, err := db.RunQuery(viberCallsQuery); err != nil {
				sc.Warn(a.Name()+": call query failed", err)
			} else if err := pumpCallLogs(sc, a.Name(), rs, viberCallRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": call iteration failed", err)
			}
			return nil
		})
	if err != nil {
		sc.Warn(a.Name()+": viber_data discovery failed", err)
	}

	return withDatabases(sc, a.Name(), "viber_messages", true, viberPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(viberMessagesQuery)
			if err != nil {
				return err
			}
			return pumpMessages(sc, rs, viberMessageRow{rs: rs})
		})
}

const viberContactsQuery = `
	SELECT C.display_name AS name,
	       coalesce(D.data2, D.data1, D.data3) AS number
	FROM   phonebookcontact AS C
	       JOIN phonebookdata AS D
	         ON C._id = D.contact_id
`

const viberCallsQuery = `
	SELECT C.canonized_number AS number,
	       C.type             AS direction,
	       C.duration         AS seconds,
	       C.date             AS start_time,
	       C.viber_call_type  AS call_type
	FROM   calls AS C
`

// The participant self-join builds the sender -> everyone-else lookup per
// conversation; joining it onto messages labels each row with its sender
// and recipients.
const viberMessagesQuery = `
	SELECT convo_participants.from_number AS from_number,
	       convo_participants.recipients  AS recipients,
	       M.conversation_id              AS thread_id,
	       M.body                         AS msg_content,
	       M.send_type                    AS direction,
	       M.msg_date                     AS msg_date,
	       M.unread                       AS read_status,
	       M.extra_uri                    AS file_attachment
	FROM   (SELECT *,
	               group_concat(TO_RESULT.number) AS recipients
	        FROM   (SELECT P._id     AS FROM_ID,
	                       P.conversation_id,
	                       PI.number AS FROM_NUMBER
	                FROM   participants AS P
	                       JOIN participants_info AS PI
	                         ON P.participant_info_id = PI._id) AS FROM_RESULT
	               JOIN (SELECT P._id AS TO_ID,
	                            P.conversation_id,
	                            PI.number
	                     FROM   participants AS P
	                            JOIN participants_info AS PI
	                              ON P.participant_info_id = PI._id) AS TO_RESULT
	                 ON FROM_RESULT.from_id != TO_RESULT.to_id
	                    AND FROM_RESULT.conversation_id = TO_RESULT.conversation_id
	        GROUP  BY FROM_RESULT.from_id) AS convo_participants
	       JOIN messages AS M
	         ON M.participant_id = convo_participants.from_id
	            AND M.conversation_id = convo_participants.conversation_id
`

// calls.type: 1 incoming, 2 outgoing, 3 missed (collapses into incoming).
var viberCallDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
	"3": record.DirectionIncoming,
}

// messages.send_type: 0 incoming, 1 outgoing.
var viberMessageDirections = normalize.DirectionTable{
	"0": record.DirectionIncoming,
	"1": record.DirectionOutgoing,
}

type viberContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r viberContactRow) ContactName() string { return r.rs.GetString("name").String }
func (r viberContactRow) Phone() string       { return r.rs.GetString("number").String }

type viberCallRow struct {
	adapter.CallRow
	rs *rowset.Rows
}

func (r viberCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, viberCallDirections)
}

// The device owner's own number is not in the database, so only the far
// side of the call is addressable.
func (r viberCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("number").String)
	}
	return nil
}

func (r viberCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("number").String)
	}
	return nil
}

func (r viberCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("start_time").Int64, normalize.UnitMilliseconds)
}

func (r viberCallRow) End() int64 {
	return r.Start() + r.rs.GetLong("seconds").Int64
}

func (r viberCallRow) MediaType() record.CallMediaType {
	switch r.rs.GetLong("call_type").Int64 {
	case 1:
		return record.CallMediaAudio
	case 4:
		return record.CallMediaVideo
	default:
		return record.CallMediaUnknown
	}
}

type viberMessageRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r viberMessageRow) Kind() string { return "Viber Message" }

func (r viberMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("direction").String, viberMessageDirections)
}

func (r viberMessageRow) From() *record.Address {
	return adapter.Addr(r.rs.GetString("from_number").String)
}

func (r viberMessageRow) To() []record.Address {
	return adapter.FanOut(r.rs.GetString("recipients").String, "")
}

func (r viberMessageRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("msg_date").Int64, normalize.UnitMilliseconds)
}

func (r viberMessageRow) ReadStatus() record.ReadStatus {
	if r.Direction() != record.DirectionIncoming {
		return record.ReadStatusUnknown
	}
	// unread counts pending notifications: 0 means the message was seen.
	if unread := r.rs.GetLong("read_status"); unread.Valid {
		if unread.Int64 == 0 {
			return record.ReadStatusRead
		}
		return record.ReadStatusUnread
	}
	return record.ReadStatusUnknown
}

func (r viberMessageRow) Body() string { return r.rs.GetString("msg_content").String }

func (r viberMessageRow) ThreadID() string { return r.rs.GetString("thread_id").String }

func (r viberMessageRow) Attachment() *record.Attachment {
	uri := r.rs.GetString("file_attachment").String
	if uri == "" {
		return nil
	}
	// A content: URI points at the media store; the real path was written
	// into the body instead.
	if strings.Contains(uri, "content:") {
		uri = r.rs.GetString("msg_content").String
	}
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{Explicit: uri})
}
