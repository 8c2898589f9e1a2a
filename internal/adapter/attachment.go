package adapter

import (
	"strings"

	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
)

// AttachmentCandidates carries up to four possible attachment references
// pulled from one row, in descending priority: the explicit attachment
// column, an original/remote path, a local cache path, and a path embedded
// in a JSON payload.
type AttachmentCandidates struct {
	Explicit string
	Original string
	Local    string
	Payload  string
	MimeType string
}

// ResolveAttachment picks the highest-priority non-empty candidate, strips
// any file:// or content:// scheme, and returns nil when every candidate is
// empty. Absence of an attachment is not an error.
func ResolveAttachment(c AttachmentCandidates) *record.Attachment {
	for _, candidate := range []string{c.Explicit, c.Original, c.Local, c.Payload} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		return &record.Attachment{
			Path:     normalize.StripURIScheme(candidate),
			MimeType: c.MimeType,
		}
	}
	return nil
}
