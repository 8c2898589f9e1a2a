package adapter

import (
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
)

// Addr wraps a single id into an Address pointer, or nil for an empty id.
func Addr(id string) *record.Address {
	if id == "" {
		return nil
	}
	return &record.Address{ID: id}
}

// AddrList converts a slice of ids to Addresses, dropping empties.
func AddrList(ids []string) []record.Address {
	out := make([]record.Address, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, record.Address{ID: id})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FanOut derives the recipient list for a conversation row. When the row
// carries a group-membership aggregate (a GROUP_CONCAT member list), the
// recipients are that list, order preserved; otherwise the single
// conversation id is the one recipient.
func FanOut(groupMembers, conversationID string) []record.Address {
	if members := normalize.SplitRecipients(groupMembers); members != nil {
		return AddrList(members)
	}
	return AddrList([]string{conversationID})
}

// Sender picks the message/call sender: the per-row sender id when present,
// falling back to the scan-level self account id. The per-row id wins
// because it is the more specific of the two.
func Sender(perRow, self string) *record.Address {
	if perRow != "" {
		return Addr(perRow)
	}
	return Addr(self)
}
