package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// smsAnalyzer parses the stock telephony provider database (mmssms.db)
// for SMS and MMS messages. The two tables are independent queries; a
// schema-drift failure in one does not cost the other its records.
type smsAnalyzer struct{}

func (smsAnalyzer) Name() string { return "SMS/MMS Parser" }

func (a smsAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "mmssms.db", true, "com.android.providers.telephony",
		func(db *appdb.DB, _ string) error {
			if rs, err := db.RunQuery(smsQuery); err != nil {
				sc.Warn(a.Name()+": sms query failed", err)
			} else if err := pumpMessages(sc, rs, smsRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": sms iteration failed", err)
			}

			if rs, err := db.RunQuery(mmsQuery); err != nil {
				sc.Warn(a.Name()+": mms query failed", err)
			} else if err := pumpMessages(sc, rs, mmsRow{rs: rs}); err != nil {
				sc.Warn(a.Name()+": mms iteration failed", err)
			}
			return nil
		})
}

const smsQuery = `
	SELECT address,
	       date,
	       read,
	       type,
	       subject,
	       body,
	       thread_id
	FROM   sms
	ORDER  BY date DESC
`

// MMS text lives in the part table; addresses live in addr, typed 137 for
// the sender and 151 for recipients. MMS dates are already in seconds.
const mmsQuery = `
	SELECT P._id,
	       P.date,
	       P.read,
	       P.msg_box,
	       P.sub AS subject,
	       P.thread_id,
	       (SELECT A.address FROM addr AS A
	        WHERE A.msg_id = P._id AND A.type = 137 LIMIT 1)        AS from_address,
	       (SELECT group_concat(A.address) FROM addr AS A
	        WHERE A.msg_id = P._id AND A.type = 151)                AS to_addresses,
	       (SELECT group_concat(PT.text, '') FROM part AS PT
	        WHERE PT.mid = P._id AND PT.ct = 'text/plain')          AS body,
	       (SELECT PT._data FROM part AS PT
	        WHERE PT.mid = P._id
	          AND PT.ct NOT IN ('application/smil', 'text/plain')
	          AND PT._data IS NOT NULL LIMIT 1)                    AS attachment_path
	FROM   pdu AS P
	ORDER  BY P.date DESC
`

var smsDirections = normalize.DirectionTable{
	"1": record.DirectionIncoming,
	"2": record.DirectionOutgoing,
}

type smsRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r smsRow) Kind() string { return "SMS Message" }

func (r smsRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("type").String, smsDirections)
}

func (r smsRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("address").String)
	}
	return nil
}

func (r smsRow) To() []record.Address {
	if r.Direction() == record.DirectionOutgoing {
		return adapter.FanOut("", r.rs.GetString("address").String)
	}
	return nil
}

func (r smsRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("date").Int64, normalize.UnitMilliseconds)
}

func (r smsRow) ReadStatus() record.ReadStatus {
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

func (r smsRow) Subject() string  { return r.rs.GetString("subject").String }
func (r smsRow) Body() string     { return r.rs.GetString("body").String }
func (r smsRow) ThreadID() string { return r.rs.GetString("thread_id").String }

type mmsRow struct {
	adapter.MessageRow
	rs *rowset.Rows
}

func (r mmsRow) Kind() string { return "MMS Message" }

func (r mmsRow) Direction() record.Direction {
	return normalize.InferDirection(r.rs.GetString("msg_box").String, smsDirections)
}

func (r mmsRow) From() *record.Address {
	if r.Direction() == record.DirectionIncoming {
		return adapter.Addr(r.rs.GetString("from_address").String)
	}
	return nil
}

func (r mmsRow) To() []record.Address {
	return adapter.FanOut(r.rs.GetString("to_addresses").String, "")
}

func (r mmsRow) Time() int64 {
	return normalize.ToEpochSeconds(r.rs.GetLong("date").Int64, normalize.UnitSeconds)
}

func (r mmsRow) ReadStatus() record.ReadStatus {
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

func (r mmsRow) Subject() string  { return r.rs.GetString("subject").String }
func (r mmsRow) Body() string     { return r.rs.GetString("body").String }
func (r mmsRow) ThreadID() string { return r.rs.GetString("thread_id").String }

func (r mmsRow) Attachment() *record.Attachment {
	return adapter.ResolveAttachment(adapter.AttachmentCandidates{
		Local: r.rs.GetString("attachment_path").String,
	})
}
