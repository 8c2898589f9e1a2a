// Package normalize holds the pure conversion functions shared by every app
// analyzer: timestamp unit conversion, direction code mapping, fixed-point
// coordinate decoding, and text unwrapping. Nothing in this package touches
// I/O and nothing here returns an error to the per-row path; malformed
// values collapse to documented defaults.
package normalize

import (
	"strconv"
	"strings"
)

// TimeUnit identifies the timestamp encoding used by a specific app table.
// The unit is a property of the schema, never auto-detected from the value.
type TimeUnit int

const (
	UnitSeconds TimeUnit = iota
	UnitMilliseconds
	UnitMicroseconds
	UnitNanoseconds
	// UnitWebkit is microseconds since 1601-01-01, used by Chromium-based
	// browsers.
	UnitWebkit
)

// webkitEpochOffsetSec is the number of seconds between 1601-01-01 and the
// Unix epoch.
const webkitEpochOffsetSec = 11644473600

// ToEpochSeconds converts a raw timestamp in the given unit to Unix epoch
// seconds. Non-positive inputs pass through the same arithmetic; callers
// that treat 0 as "absent" should check before converting.
func ToEpochSeconds(raw int64, unit TimeUnit) int64 {
	switch unit {
	case UnitMilliseconds:
		return raw / 1_000
	case UnitMicroseconds:
		return raw / 1_000_000
	case UnitNanoseconds:
		return raw / 1_000_000_000
	case UnitWebkit:
		return raw/1_000_000 - webkitEpochOffsetSec
	default:
		return raw
	}
}

// ParseEpochSeconds converts a raw timestamp stored as text. Several app
// schemas store times in TEXT columns (Line call_history among them); a
// malformed value yields 0, never an error.
func ParseEpochSeconds(raw string, unit TimeUnit) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return ToEpochSeconds(v, unit)
}
