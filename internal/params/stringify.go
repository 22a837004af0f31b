package params

import "encoding/json"

// replaceNulls walks a decoded JSON value and substitutes empty strings for
// nulls, at any depth.
func replaceNulls(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = replaceNulls(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = replaceNulls(inner)
		}
		return out
	default:
		return v
	}
}

// StringifyJSONFields returns a copy of the attribute map with each named
// field re-encoded as a JSON string, nulls replaced by empty strings. The
// gallery UI treats these fields as display text, not structured data.
// Absent or empty fields are left untouched.
func StringifyJSONFields(attributes map[string]interface{}, fields ...string) map[string]interface{} {
	normalized := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		normalized[k] = v
	}

	for _, field := range fields {
		value, ok := normalized[field]
		if !ok || value == nil {
			continue
		}
		encoded, err := json.Marshal(replaceNulls(value))
		if err != nil {
			continue
		}
		normalized[field] = string(encoded)
	}

	return normalized
}
