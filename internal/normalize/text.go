package normalize

import (
	"encoding/base64"
	"strings"
	"unicode"
)

// SplitRecipients splits a GROUP_CONCAT-style comma-joined member list into
// individual ids, preserving order and dropping empty segments. Duplicates
// are kept; deduplication, if wanted, belongs to the sink.
func SplitRecipients(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DecodeObfuscatedText unwraps a Base64-wrapped message payload of the kind
// Tango stores: the decoded bytes carry a binary envelope around a run of
// printable text. The longest printable run is returned; if the input is
// not valid Base64 or decodes to nothing printable, the input is returned
// unchanged so the row still carries whatever the app stored.
func DecodeObfuscatedText(payload string) string {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return payload
	}
	best := longestPrintableRun(string(raw))
	if best == "" {
		return payload
	}
	return best
}

func longestPrintableRun(s string) string {
	var best, cur strings.Builder
	flush := func() {
		if cur.Len() > best.Len() {
			best.Reset()
			best.WriteString(cur.String())
		}
		cur.Reset()
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && r != ' ') {
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return strings.TrimSpace(best.String())
}

// StripURIScheme removes a file:// or content:// prefix from an attachment
// reference, leaving a plain path for the file resolver.
func StripURIScheme(uri string) string {
	for _, scheme := range []string{"file://", "content://"} {
		if strings.HasPrefix(uri, scheme) {
			return strings.TrimPrefix(uri, scheme)
		}
	}
	return uri
}
