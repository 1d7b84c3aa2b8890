package normalize

import (
	"encoding/json"
	"time"
)

// The terminal reports every timestamp as an integer, but the unit depends on
// the field name: plain fields are seconds since epoch, *_msc fields are
// milliseconds. Units are never inferred from magnitude; membership in these
// tables is the only signal.
var secondFields = map[string]bool{
	"time":            true,
	"time_update":     true,
	"time_setup":      true,
	"time_done":       true,
	"time_expiration": true,
}

var millisecondFields = map[string]bool{
	"time_msc":        true,
	"time_update_msc": true,
	"time_setup_msc":  true,
	"time_done_msc":   true,
}

const millisLayout = "2006-01-02T15:04:05.000Z07:00"

// UTCFromSeconds renders an epoch-seconds timestamp as ISO-8601 UTC.
func UTCFromSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// UTCFromMillis renders an epoch-milliseconds timestamp as ISO-8601 UTC
// with millisecond precision.
func UTCFromMillis(msc int64) string {
	return time.UnixMilli(msc).UTC().Format(millisLayout)
}

// Record normalizes a flat raw terminal record: every known time-like field
// is replaced by its ISO-8601 UTC string, everything else passes through
// untouched. Absent fields stay absent. The input map is not mutated.
func Record(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch {
		case secondFields[k]:
			if n, ok := asInt64(v); ok {
				out[k] = UTCFromSeconds(n)
				continue
			}
		case millisecondFields[k]:
			if n, ok := asInt64(v); ok {
				out[k] = UTCFromMillis(n)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// asInt64 coerces the numeric types a decoded JSON record may carry.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
