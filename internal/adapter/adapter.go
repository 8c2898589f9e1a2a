// Package adapter defines the three row-adapter families the app analyzers
// build on. Each family pairs an accessor interface with a base struct
// supplying the documented defaults; a concrete per-app row embeds the base
// and overrides only the accessors its schema can actually answer. The
// Collect helpers materialize one canonical record per cursor row.
package adapter

import "github.com/Napageneral/commscan/internal/record"

// ContactSource exposes the canonical contact fields for the current row.
type ContactSource interface {
	ContactName() string
	Phone() string
	HomePhone() string
	MobilePhone() string
	Email() string
	Extras() []record.ExtraAttribute
}

// ContactRow supplies the default (empty) contact accessors.
type ContactRow struct{}

func (ContactRow) ContactName() string             { return "" }
func (ContactRow) Phone() string                   { return "" }
func (ContactRow) HomePhone() string               { return "" }
func (ContactRow) MobilePhone() string             { return "" }
func (ContactRow) Email() string                   { return "" }
func (ContactRow) Extras() []record.ExtraAttribute { return nil }

// MessageSource exposes the canonical message fields for the current row.
type MessageSource interface {
	Kind() string
	Direction() record.Direction
	From() *record.Address
	To() []record.Address
	Time() int64
	ReadStatus() record.ReadStatus
	Subject() string
	Body() string
	ThreadID() string
	Attachment() *record.Attachment
}

// MessageRow supplies the default message accessors: Unknown direction and
// read status, no addresses, zero time, empty text.
type MessageRow struct{}

func (MessageRow) Kind() string                   { return "" }
func (MessageRow) Direction() record.Direction    { return record.DirectionUnknown }
func (MessageRow) From() *record.Address          { return nil }
func (MessageRow) To() []record.Address           { return nil }
func (MessageRow) Time() int64                    { return 0 }
func (MessageRow) ReadStatus() record.ReadStatus  { return record.ReadStatusUnknown }
func (MessageRow) Subject() string                { return "" }
func (MessageRow) Body() string                   { return "" }
func (MessageRow) ThreadID() string               { return "" }
func (MessageRow) Attachment() *record.Attachment { return nil }

// CallSource exposes the canonical call-log fields for the current row.
type CallSource interface {
	Direction() record.Direction
	From() *record.Address
	To() []record.Address
	Start() int64
	End() int64
	MediaType() record.CallMediaType
}

// CallRow supplies the default call accessors.
type CallRow struct{}

func (CallRow) Direction() record.Direction     { return record.DirectionUnknown }
func (CallRow) From() *record.Address           { return nil }
func (CallRow) To() []record.Address            { return nil }
func (CallRow) Start() int64                    { return 0 }
func (CallRow) End() int64                      { return 0 }
func (CallRow) MediaType() record.CallMediaType { return record.CallMediaUnknown }

// CollectContact materializes a Contact from the current row of src.
func CollectContact(source string, src ContactSource) record.Contact {
	return record.Contact{
		Source:      source,
		DisplayName: src.ContactName(),
		Phone:       src.Phone(),
		HomePhone:   src.HomePhone(),
		MobilePhone: src.MobilePhone(),
		Email:       src.Email(),
		Extra:       src.Extras(),
	}
}

// CollectMessage materializes a Message from the current row of src.
func CollectMessage(src MessageSource) record.Message {
	return record.Message{
		Kind:         src.Kind(),
		Direction:    src.Direction(),
		From:         src.From(),
		To:           src.To(),
		TimestampSec: src.Time(),
		ReadStatus:   src.ReadStatus(),
		Subject:      src.Subject(),
		Body:         src.Body(),
		ThreadID:     src.ThreadID(),
		Attachment:   src.Attachment(),
	}
}

// CollectCallLog materializes a CallLog from the current row of src. An end
// time before the start (clock skew, negative durations in the source) is
// clamped to the start.
func CollectCallLog(source string, src CallSource) record.CallLog {
	start := src.Start()
	end := src.End()
	if end < start {
		end = start
	}
	return record.CallLog{
		Source:    source,
		Direction: src.Direction(),
		From:      src.From(),
		To:        src.To(),
		StartSec:  start,
		EndSec:    end,
		MediaType: src.MediaType(),
	}
}
