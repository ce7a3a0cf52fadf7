package normalize

import (
	"fmt"
	"math"
	"strconv"
)

// Helpers for the untyped key/value payload of a decoded change event.
// encoding/json hands every JSON number over as float64, so each accessor
// collapses the number-or-string ambiguity once, here, and nowhere else.

// canonicalID renders an identifier value as its canonical string form:
// integral numbers without fraction, exponent or separators, text verbatim.
func canonicalID(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// idField resolves key to a canonical id string. Missing or null yields "".
func idField(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return canonicalID(v)
}

// stringField resolves key to its text form, or "" when missing/null.
func stringField(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return canonicalID(v)
}

// floatField accepts a JSON number or a numeric string. An unparsable
// string reports ok=false so the caller can log the fallback; the returned
// value is always usable.
func floatField(payload map[string]interface{}, key string) (val float64, ok bool) {
	v, present := payload[key]
	if !present || v == nil {
		return 0.0, true
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0.0, false
		}
		return f, true
	default:
		return 0.0, false
	}
}

// intField resolves key to an integer, defaulting to 0 when missing/null.
func intField(payload map[string]interface{}, key string) int {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// int64Field is intField with int64 range, used for epoch timestamps.
func int64Field(payload map[string]interface{}, key string) (int64, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// payloadKeys lists the field names present in a payload, for skip logging.
func payloadKeys(payload map[string]interface{}) []string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	return keys
}
