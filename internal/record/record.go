// Package record defines the canonical communication entities produced by
// the per-app normalizers. Every record is built from exactly one source
// database row and handed to the artifact sink once; nothing here is mutated
// after construction.
package record

// Direction of a message or call relative to the device owner.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionIncoming
	DirectionOutgoing
)

func (d Direction) String() string {
	switch d {
	case DirectionIncoming:
		return "incoming"
	case DirectionOutgoing:
		return "outgoing"
	default:
		return "unknown"
	}
}

// ReadStatus of a message.
type ReadStatus int

const (
	ReadStatusUnknown ReadStatus = iota
	ReadStatusRead
	ReadStatusUnread
)

func (r ReadStatus) String() string {
	switch r {
	case ReadStatusRead:
		return "read"
	case ReadStatusUnread:
		return "unread"
	default:
		return "unknown"
	}
}

// CallMediaType distinguishes audio from video calls.
type CallMediaType int

const (
	CallMediaUnknown CallMediaType = iota
	CallMediaAudio
	CallMediaVideo
)

func (c CallMediaType) String() string {
	switch c {
	case CallMediaAudio:
		return "audio"
	case CallMediaVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Address is an app-scoped identifier for a communication endpoint: a phone
// number, user id, or group id. Display is optional and purely cosmetic.
type Address struct {
	ID      string
	Display string
}

// Attachment is a resolved file reference for a message. Path has any
// file:// or content:// scheme prefix already stripped.
type Attachment struct {
	Path     string
	MimeType string
}

// ExtraAttribute is an app-specific (kind, value) pair carried on a Contact
// beyond the fixed contact-method fields, e.g. a WhatsApp jid.
type ExtraAttribute struct {
	Kind  string
	Value string
}

// Contact is a normalized address-book entry.
type Contact struct {
	Source      string
	DisplayName string
	Phone       string
	HomePhone   string
	MobilePhone string
	Email       string
	Extra       []ExtraAttribute
}

// HasContactMethod reports whether any contact-method field is populated.
// Name-only contacts may still be emitted depending on the scan policy.
func (c Contact) HasContactMethod() bool {
	return c.Phone != "" || c.HomePhone != "" || c.MobilePhone != "" || c.Email != ""
}

// Message is a normalized message record. To holds one Address for 1:1
// conversations and the full member list for group conversations.
type Message struct {
	Kind         string
	Direction    Direction
	From         *Address
	To           []Address
	TimestampSec int64
	ReadStatus   ReadStatus
	Subject      string
	Body         string
	ThreadID     string
	Attachment   *Attachment
}

// CallLog is a normalized call record. EndSec is never before StartSec.
type CallLog struct {
	Source    string
	Direction Direction
	From      *Address
	To        []Address
	StartSec  int64
	EndSec    int64
	MediaType CallMediaType
}

// GeoPoint is a single normalized coordinate fix.
type GeoPoint struct {
	Source       string
	Latitude     float64
	Longitude    float64
	Altitude     float64
	HasAltitude  bool
	TimestampSec int64
	Label        string
}

// GeoRoute is an ordered, non-empty sequence of points; a start/end
// waypoint pair is the minimal form.
type GeoRoute struct {
	Source string
	Label  string
	Points []GeoPoint
}
