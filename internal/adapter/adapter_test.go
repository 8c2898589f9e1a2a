package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Napageneral/commscan/internal/record"
)

type bareMessage struct{ MessageRow }

func (bareMessage) Kind() string { return "Test Message" }

func TestCollectMessageDefaults(t *testing.T) {
	msg := CollectMessage(bareMessage{})

	assert.Equal(t, "Test Message", msg.Kind)
	assert.Equal(t, record.DirectionUnknown, msg.Direction)
	assert.Equal(t, record.ReadStatusUnknown, msg.ReadStatus)
	assert.Nil(t, msg.From)
	assert.Nil(t, msg.To)
	assert.Zero(t, msg.TimestampSec)
	assert.Empty(t, msg.Body)
	assert.Nil(t, msg.Attachment)
}

type skewedCall struct{ CallRow }

func (skewedCall) Start() int64 { return 1609459200 }
func (skewedCall) End() int64   { return 1609459100 }

func TestCollectCallLogClampsEnd(t *testing.T) {
	cl := CollectCallLog("test", skewedCall{})
	assert.Equal(t, int64(1609459200), cl.StartSec)
	assert.Equal(t, cl.StartSec, cl.EndSec)
}

func TestResolveAttachmentPriority(t *testing.T) {
	all := AttachmentCandidates{
		Explicit: "file:///data/att/explicit.jpg",
		Original: "/remote/original.jpg",
		Local:    "/cache/local.jpg",
		Payload:  "/payload/embedded.jpg",
		MimeType: "image/jpeg",
	}
	att := ResolveAttachment(all)
	if assert.NotNil(t, att) {
		assert.Equal(t, "/data/att/explicit.jpg", att.Path)
		assert.Equal(t, "image/jpeg", att.MimeType)
	}

	// Lower-priority candidates win only when the higher ones are empty.
	att = ResolveAttachment(AttachmentCandidates{Original: "content://media/1", Local: "/cache/x"})
	if assert.NotNil(t, att) {
		assert.Equal(t, "media/1", att.Path)
	}

	att = ResolveAttachment(AttachmentCandidates{Payload: "/payload/only.png"})
	if assert.NotNil(t, att) {
		assert.Equal(t, "/payload/only.png", att.Path)
	}

	assert.Nil(t, ResolveAttachment(AttachmentCandidates{}))
	assert.Nil(t, ResolveAttachment(AttachmentCandidates{Explicit: "   "}))
}

func TestFanOut(t *testing.T) {
	// Group aggregate present: recipients are the member list, in order.
	to := FanOut("a,b,c", "group-1")
	assert.Equal(t, []record.Address{{ID: "a"}, {ID: "b"}, {ID: "c"}}, to)

	// Same row parsed twice yields the identical list.
	assert.Equal(t, to, FanOut("a,b,c", "group-1"))

	// No aggregate: the conversation id is the single recipient.
	assert.Equal(t, []record.Address{{ID: "+15551234567"}}, FanOut("", "+15551234567"))

	assert.Nil(t, FanOut("", ""))
}

func TestSender(t *testing.T) {
	// The per-row sender id is more specific than the self account.
	assert.Equal(t, &record.Address{ID: "row-sender"}, Sender("row-sender", "self-id"))
	assert.Equal(t, &record.Address{ID: "self-id"}, Sender("", "self-id"))
	assert.Nil(t, Sender("", ""))
}
