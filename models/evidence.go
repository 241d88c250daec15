// models/evidence.go
package models

// Evidence is the free-form diagnostic payload attached to an earned event.
// The reserved TimestampKey entry carries the reconstructed epoch-second
// moment the achievement was actually earned; 0 means undated.
type Evidence map[string]any

const TimestampKey = "_timestamp"

// Timestamp extracts the backdated award moment from the evidence, trying
// the reserved key first and a plain integer "timestamp" second. Returns
// (0, false) when no usable value is present.
func (e Evidence) Timestamp() (int64, bool) {
	for _, key := range []string{TimestampKey, "timestamp"} {
		v, ok := e[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case int64:
			if t > 0 {
				return t, true
			}
		case int:
			if t > 0 {
				return int64(t), true
			}
		case float64:
			if t > 0 {
				return int64(t), true
			}
		}
	}
	return 0, false
}
