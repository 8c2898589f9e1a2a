package apps

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// skypeAnalyzer parses Skype databases, named live:<skype id>.db. Both
// 1:1 and group chatItem rows reference a conversation_link that is either
// a person id or a group id, so contacts and group participants are
// unioned into one "contact-or-group" relation before the join. Calls are
// chatItem rows with message_type 3.
type skypeAnalyzer struct{}

const skypePackage = "com.skype.raider"

func (skypeAnalyzer) Name() string { return "Skype Parser" }

func (a skypeAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "live:", false, skypePackage,
		func(db *appdb.DB, _ string) error {
			// The owner's id fills in the sender of outgoing rows; its
			// absence only degrades addressing, never the scan.
			if self, err := a.userAccount(db); err != nil {
				sc.Warn(a.Name()+": user account lookup failed", err)
			} else {
				sc.SetSelfAccount(a.Name(), self)
			}

			if rs, err := db.RunQuery(skypeContactsQuery); err != nil {
				sc.Warn(a.Name()+": contact query failed", err)
			} else if err := pumpContacts(sc, a.Name(), rs, skypeContactRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": contact iteration failed", err)
			}

			if rs, err := db.RunQuery(skypeCallsQuery); err != nil {
				sc.Warn(a.Name()+": call query failed", err)
			} else if err := pumpCallLogs(sc, a.Name(), rs, skypeCallRow{rs: rs, self: sc.SelfAccount(a.Name())}); err != nil {
				sc.Warn(a.Name()+": call iteration failed", err)
			}

			if rs, err := db.RunQuery(skypeMessagesQuery); err != nil {
				sc.Warn(a.Name()+": message query failed", err)
			} else if err := pumpMessages(sc, rs, skypeMessageRow{rs: rs, self: sc.SelfAccount(a.Name())}); err != nil {
				sc.Warn(a.Name()+": message iteration failed", err)
			}
			return nil
		})
}

func (skypeAnalyzer) userAccount(db *appdb.DB) (string, error) {
	var id string
	err := db.QueryRow("SELECT entry_id FROM user LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying user table: %w", err)
	}
	return id, nil
}

// skypeUserName formats a display name out of the nullable first/last name
// columns, falling back to the entry id. Commas are stripped so the names
// survive group_concat aggregation.
const skypeUserName = `
	CASE
	  WHEN Ifnull(first_name, "") == "" AND Ifnull(last_name, "") == "" THEN entry_id
	  WHEN first_name IS NULL THEN replace(last_name, ",", "")
	  WHEN last_name IS NULL THEN replace(first_name, ",", "")
	  ELSE replace(first_name, ",", "") || " " || replace(last_name, ",", "")
	END
`

const skypeContactsQuery = `
	SELECT entry_id,
	       ` + skypeUserName + ` AS name
	FROM   person
`

const skypeConversationJoin = `
	FROM   (SELECT conversation_id,
	               Group_concat(person_id) AS participant_ids,
	               Group_concat(` + skypeUserName + `) AS participants
	        FROM   particiapnt AS PART
	               JOIN person AS P
	                 ON PART.person_id = P.entry_id
	        GROUP  BY conversation_id
	        UNION
	        SELECT entry_id,
	               NULL,
	               ` + skypeUserName + ` AS participant
	        FROM   person) AS contacts_list_with_groups
	       JOIN chatitem AS C
	         ON C.conversation_link = contacts_list_with_groups.conversation_id
	       JOIN (SELECT entry_id AS id,
	                    ` + skypeUserName + ` AS name
	             FROM   person
	             UNION
	             SELECT entry_id AS id,
	                    ` + skypeUserName + ` AS name
	             FROM   user) AS sender_name
	         ON sender_name.id = C.person_id
`

const skypeCallsQuery = `
	SELECT contacts_list_with_groups.conversation_id,
	       contacts_list_with_groups.participant_ids,
	       contacts_list_with_groups.participants,
	       time,
	       duration,
	       is_sender_me,
	       person_id AS sender_id,
	       sender_name.name AS sender_name
	` + skypeConversationJoin + `
	WHERE  message_type == 3
`

const skypeMessagesQuery = `
	SELECT contacts_list_with_groups.conversation_id,
	       contacts_list_with_groups.participant_ids,
	       contacts_list_with_groups.participants,
	       time,
	       content,
	       device_gallery_path,
	       is_sender_me,
	       person_id AS sender_id,
	       sender_name.name AS sender_name
	` + skypeConversationJoin + `
	WHERE  message_type != 3
`

// is_sender_me: 0 incoming, 1 outgoing.
var skypeDirections = normalize.DirectionTable{
	"0": record.DirectionIncoming,
	"1": record.DirectionOutgoing,
}

type skypeContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r skypeContactRow) ContactName() string { return r.rs.GetString("name").String }

func (r skypeContactRow) Extras() []record.ExtraAttribute {
	id := r.rs.GetString("entry_id").String
	if id == "" {
		return nil
	}
	return []record.ExtraAttribute{{Kind: "id", Value: id}}
}

type skypeCallRow struct {
	adapter.CallRow
	rs   *rowset.Rows
	self string
}

func (r skypeCallRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("is_sender_me").String, skypeDirections)
}

func (r skypeCallRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Sender(r.rs.GetString("sender_id").String, r.self)
	}
	return nil
}

func (r skypeCallRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(
			r.rs.GetString("participant_ids").String,
			r.rs.GetString("conversation_id").String)
	}
	return nil
}

func (r skypeCallRow) Start() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("time").Int64, normalize.UnitMilliseconds)
}

func (r skypeCallRow) End() int64 {
	return r.Start() + r.rs.GetLong("duration").Int64/1000
}

type skypeMessageRow struct {
	adapter.MessageRow
	rs   *rowset.Rows
	self string
}

func (r skypeMessageRow) Kind() string { return "Skype Message" }

func (r skypeMessageRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("is_sender_me").String, skypeDirections)
}

func (r skypeMessageRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Sender(r.rs.GetString("sender_id").String, r.self)
	}
	return nil
}

func (r skypeMessageRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut(
			r.rs.GetString("participant_ids").String,
			r.rs.GetString("conversation_id").String)
	}
	return nil
}

func (r skypeMessageRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("time").Int64, normalize.UnitMilliseconds)
}

func (r skypeMessageRow) Body() string { return r.rs.GetString("content").String }

func (r skypeMessageRow) ThreadID() string {
	if r.rs.GetString("participant_ids").Valid {
		return r.rs.GetString("conversation_id").String
	}
	return ""
}

func (r skypeMessageRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Local: r.rs.GetString("device_gallery_path").String,
	})
}
