package params

import (
	"encoding/json"
	"sort"
	"strings"
)

// Value is the grouped value for a single key: one raw string, or several
// when the key occurred more than once. It marshals to a bare JSON string
// when singular and to an array otherwise, matching the shape stored in the
// content-entry field.
type Value []string

// MarshalJSON renders a singular value as a string and a repeated value as
// an ordered array.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON accepts either a bare string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = Value{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*v = Value(many)
	return nil
}

// GroupByKey folds ordered pairs into a key-indexed record. Repeated keys
// collect their raw values in occurrence order. Comma-joined values are not
// split here; splitting only happens when a specific sub-value is merged or
// removed.
func GroupByKey(p Params) map[string]Value {
	grouped := make(map[string]Value, len(p))
	for _, pair := range p {
		grouped[pair.Key] = append(grouped[pair.Key], pair.Value)
	}
	return grouped
}

// Update is a requested change for one key: either a string value or a
// boolean marker. A boolean true on a remove means "drop the whole key"; on
// an add it serializes to the literal "true".
type Update struct {
	str    string
	b      bool
	isBool bool
}

// String builds a string-valued update.
func String(s string) Update { return Update{str: s} }

// Bool builds a boolean-valued update.
func Bool(b bool) Update { return Update{b: b, isBool: true} }

// falsy reports whether the update carries no value worth adding: an empty
// string or a false boolean.
func (u Update) falsy() bool {
	if u.isBool {
		return !u.b
	}
	return u.str == ""
}

// serialized returns the value as it appears in a query string. Booleans
// become the literals "true" and "false".
func (u Update) serialized() string {
	if u.isBool {
		if u.b {
			return "true"
		}
		return "false"
	}
	return u.str
}

// Updates maps parameter names to requested changes.
type Updates map[string]Update

// sortedKeys keeps update application deterministic; the source iterated an
// object whose insertion order is not reproducible here.
func (u Updates) sortedKeys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddOrMerge adds each update into the parameter list. Falsy values are
// skipped, a missing key is set, an identical existing value is left alone,
// and anything else is appended to the existing value as a comma-joined
// list.
func AddOrMerge(p Params, updates Updates) Params {
	out := p.Clone()
	for _, key := range updates.sortedKeys() {
		update := updates[key]
		if update.falsy() {
			continue
		}
		value := update.serialized()
		existing, ok := out.Get(key)
		if !ok {
			out = out.Set(key, value)
			continue
		}
		if existing == value {
			continue
		}
		out = out.Set(key, existing+","+value)
	}
	return out
}

// Remove drops each update from the parameter list. A single-valued key is
// deleted outright, whatever value the update carries. A comma-joined value
// is filtered element-by-element against the update's string form, so a
// boolean marker never matches and leaves the list intact.
func Remove(p Params, updates Updates) Params {
	out := p.Clone()
	for _, key := range updates.sortedKeys() {
		existing, ok := out.Get(key)
		if !ok {
			continue
		}
		if !strings.Contains(existing, ",") {
			out = out.Delete(key)
			continue
		}
		update := updates[key]
		parts := strings.Split(existing, ",")
		kept := parts[:0]
		for _, part := range parts {
			if !update.isBool && part == update.str {
				continue
			}
			kept = append(kept, part)
		}
		out = out.Set(key, strings.Join(kept, ","))
	}
	return out
}

// Action selects the Reduce behavior.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Reduce dispatches an add or remove over the parameter list. It is the
// single entry point used by the transformation checkbox toggle.
func Reduce(p Params, updates Updates, action Action) Params {
	switch action {
	case ActionAdd:
		return AddOrMerge(p, updates)
	case ActionRemove:
		return Remove(p, updates)
	}
	return p.Clone()
}
