package normalize

import (
	"strconv"
	"strings"

	"github.com/Napageneral/commscan/internal/record"
)

// DirectionTable maps an app's raw direction codes onto canonical
// directions. Codes are compared as trimmed strings so that schemas storing
// "1" and schemas storing 1 share one table. A code absent from the table
// maps to Unknown; missed-call codes are listed as Incoming by the app that
// owns the table.
type DirectionTable map[string]record.Direction

// InferDirection resolves a raw string code against the table. It is total:
// any input, including the empty string, yields a direction.
func InferDirection(code string, table DirectionTable) record.Direction {
	if d, ok := table[strings.TrimSpace(code)]; ok {
		return d
	}
	return record.DirectionUnknown
}

// InferDirectionInt resolves an integer code against the table.
func InferDirectionInt(code int64, table DirectionTable) record.Direction {
	return InferDirection(strconv.FormatInt(code, 10), table)
}
