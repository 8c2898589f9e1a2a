package apps

import (
	"github.com/Napageneral/commscan/internal/adapter"
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/rowset"
	"github.com/Napageneral/commscan/internal/scan"
)

// contactsAnalyzer parses the native contacts provider (contacts2.db).
// Phone numbers and emails live as typed rows in the data table; the query
// flattens one contact method per result row and the adapter routes it to
// the matching canonical field.
type contactsAnalyzer struct{}

func (contactsAnalyzer) Name() string { return "Android Contacts Parser" }

func (a contactsAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "contacts2.db", true, "com.android.providers.contacts",
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(androidContactsQuery)
			if err != nil {
				return err
			}
			return pumpContacts(sc, a.Name(), rs, androidContactRow{rs: rs})
		})
}

const androidContactsQuery = `
	SELECT RC.display_name AS name,
	       M.mimetype      AS mimetype,
	       D.data1         AS value,
	       D.data2         AS subtype
	FROM   raw_contacts AS RC
	       JOIN data AS D
	         ON D.raw_contact_id = RC._id
	       JOIN mimetypes AS M
	         ON D.mimetype_id = M._id
	WHERE  M.mimetype IN ('vnd.android.cursor.item/phone_v2',
	                      'vnd.android.cursor.item/email_v2')
	  AND  RC.deleted = 0
	ORDER  BY RC._id
`

const (
	phoneMimetype = "vnd.android.cursor.item/phone_v2"
	emailMimetype = "vnd.android.cursor.item/email_v2"

	// data2 subtypes for phone rows.
	phoneTypeHome   = 1
	phoneTypeMobile = 2
)

type androidContactRow struct {
	adapter.ContactRow
	rs *rowset.Rows
}

func (r androidContactRow) ContactName() string {
	return r.rs.GetString("name").String
}

func (r androidContactRow) Phone() string {
	if r.rs.GetString("mimetype").String != phoneMimetype {
		return ""
	}
	if sub := r.rs.GetLong("subtype"); sub.Valid && (sub.Int64 == phoneTypeHome || sub.Int64 == phoneTypeMobile) {
		return ""
	}
	return r.rs.GetString("value").String
}

func (r androidContactRow) HomePhone() string {
	if r.rs.GetString("mimetype").String == phoneMimetype && r.rs.GetLong("subtype").Int64 == phoneTypeHome {
		return r.rs.GetString("value").String
	}
	return ""
}

func (r androidContactRow) MobilePhone() string {
	if r.rs.GetString("mimetype").String == phoneMimetype && r.rs.GetLong("subtype").Int64 == phoneTypeMobile {
		return r.rs.GetString("value").String
	}
	return ""
}

func (r androidContactRow) Email() string {
	if r.rs.GetString("mimetype").String == emailMimetype {
		return r.rs.GetString("value").String
	}
	return ""
}
