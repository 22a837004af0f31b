package params

import (
	"reflect"
	"testing"
)

func TestParseEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "empty", query: "", want: ""},
		{name: "single pair", query: "foo=1", want: "foo=1"},
		{name: "multiple pairs keep order", query: "foo=1&bar=2&baz=3", want: "foo=1&bar=2&baz=3"},
		{name: "comma list is escaped on output", query: "foo=1,2,3", want: "foo=1%2C2%2C3"},
		{name: "leading question mark stripped", query: "?foo=1&bar=2", want: "foo=1&bar=2"},
		{name: "escaped comma decodes", query: "foo=1%2C2", want: "foo=1%2C2"},
		{name: "repeated keys survive", query: "foo=1&foo=2", want: "foo=1&foo=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.query).Encode()
			if got != tt.want {
				t.Errorf("Parse(%q).Encode() = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplitJoinURL(t *testing.T) {
	base, p := SplitURL("https://demo.imgix.net/dog.png?auto=format&fit=crop")
	if base != "https://demo.imgix.net/dog.png" {
		t.Errorf("base = %q", base)
	}
	if len(p) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(p))
	}
	if got := JoinURL(base, p); got != "https://demo.imgix.net/dog.png?auto=format&fit=crop" {
		t.Errorf("JoinURL() = %q", got)
	}

	base, p = SplitURL("https://demo.imgix.net/dog.png")
	if base != "https://demo.imgix.net/dog.png" || len(p) != 0 {
		t.Errorf("SplitURL without query = (%q, %d pairs)", base, len(p))
	}
	if got := JoinURL(base, p); got != "https://demo.imgix.net/dog.png" {
		t.Errorf("JoinURL with no params = %q", got)
	}
}

func TestGroupByKey(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  map[string]Value
	}{
		{
			name:  "single value parameters",
			query: "foo=1&bar=2",
			want:  map[string]Value{"foo": {"1"}, "bar": {"2"}},
		},
		{
			name:  "comma list stays a single value",
			query: "foo=1,2&bar=3",
			want:  map[string]Value{"foo": {"1,2"}, "bar": {"3"}},
		},
		{
			name:  "empty parameters",
			query: "",
			want:  map[string]Value{},
		},
		{
			name:  "multiple different keys",
			query: "foo=1&bar=2&baz=3",
			want:  map[string]Value{"foo": {"1"}, "bar": {"2"}, "baz": {"3"}},
		},
		{
			name:  "repeated keys collect into an array",
			query: "foo=1&foo=2&bar=3",
			want:  map[string]Value{"foo": {"1", "2"}, "bar": {"3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroupByKey(Parse(tt.query))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GroupByKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "singular marshals to a string", value: Value{"format"}, want: `"format"`},
		{name: "repeated marshals to an array", value: Value{"5", "6"}, want: `["5","6"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.value.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", data, tt.want)
			}

			var back Value
			if err := back.UnmarshalJSON(data); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if !reflect.DeepEqual(back, tt.value) {
				t.Errorf("round trip = %v, want %v", back, tt.value)
			}
		})
	}
}

func TestAddOrMerge(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		updates Updates
		want    string
	}{
		{
			name:    "add a new parameter",
			query:   "foo=1&bar=2",
			updates: Updates{"baz": String("3")},
			want:    "foo=1&bar=2&baz=3",
		},
		{
			name:    "merge into an existing parameter",
			query:   "foo=1&bar=2",
			updates: Updates{"foo": String("3")},
			want:    "foo=1%2C3&bar=2",
		},
		{
			name:    "multiple updates",
			query:   "foo=1&bar=2",
			updates: Updates{"foo": String("3"), "baz": String("4")},
			want:    "foo=1%2C3&bar=2&baz=4",
		},
		{
			name:    "empty string values are ignored",
			query:   "foo=1&bar=2",
			updates: Updates{"foo": String(""), "baz": String("4")},
			want:    "foo=1&bar=2&baz=4",
		},
		{
			name:    "false booleans are ignored",
			query:   "foo=1",
			updates: Updates{"bar": Bool(false)},
			want:    "foo=1",
		},
		{
			name:    "true booleans serialize as strings",
			query:   "foo=1&bar=2",
			updates: Updates{"baz": Bool(true), "qux": Bool(true)},
			want:    "foo=1&bar=2&baz=true&qux=true",
		},
		{
			name:    "empty existing parameters",
			query:   "",
			updates: Updates{"bar": String("2"), "foo": String("1")},
			want:    "bar=2&foo=1",
		},
		{
			name:    "append to an existing comma list",
			query:   "foo=1,2",
			updates: Updates{"foo": String("3")},
			want:    "foo=1%2C2%2C3",
		},
		{
			name:    "identical value is not duplicated",
			query:   "auto=format",
			updates: Updates{"auto": String("format")},
			want:    "auto=format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddOrMerge(Parse(tt.query), tt.updates).Encode()
			if got != tt.want {
				t.Errorf("AddOrMerge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddOrMerge_Idempotent(t *testing.T) {
	p := Parse("auto=format&fit=crop")
	updates := Updates{"auto": String("enhance"), "bg-remove": Bool(true)}

	once := AddOrMerge(p, updates)
	twice := AddOrMerge(once, updates)
	if once.Encode() != twice.Encode() {
		t.Errorf("second apply changed result: %q -> %q", once.Encode(), twice.Encode())
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		updates Updates
		want    string
	}{
		{
			name:    "single-valued key deleted by boolean marker",
			query:   "foo=1&bar=2",
			updates: Updates{"foo": Bool(true)},
			want:    "bar=2",
		},
		{
			name:    "specific value dropped from a comma list",
			query:   "foo=1,2,3&bar=4",
			updates: Updates{"foo": String("2")},
			want:    "foo=1%2C3&bar=4",
		},
		{
			name:    "multiple keys removed in one pass",
			query:   "foo=1,2&bar=3&baz=4",
			updates: Updates{"foo": String("1"), "bar": Bool(true)},
			want:    "foo=2&baz=4",
		},
		{
			name:    "absent key is ignored",
			query:   "foo=1&bar=2",
			updates: Updates{"baz": Bool(true)},
			want:    "foo=1&bar=2",
		},
		{
			name:    "empty parameters",
			query:   "",
			updates: Updates{"foo": Bool(true)},
			want:    "",
		},
		{
			name:    "empty updates",
			query:   "foo=1&bar=2",
			updates: Updates{},
			want:    "foo=1&bar=2",
		},
		{
			name:    "single-valued key deleted even when the value differs",
			query:   "foo=1&bar=2",
			updates: Updates{"bar": String("nope")},
			want:    "foo=1",
		},
		{
			name:    "every occurrence removed from a comma list",
			query:   "foo=1,2,2,3&bar=4",
			updates: Updates{"foo": String("2")},
			want:    "foo=1%2C3&bar=4",
		},
		{
			name:    "boolean marker leaves a comma list untouched",
			query:   "foo=1,2",
			updates: Updates{"foo": Bool(true)},
			want:    "foo=1%2C2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Remove(Parse(tt.query), tt.updates).Encode()
			if got != tt.want {
				t.Errorf("Remove() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemove_InverseOfAddOnAbsentKey(t *testing.T) {
	p := Parse("auto=format")
	added := AddOrMerge(p, Updates{"fit": String("crop")})
	removed := Remove(added, Updates{"fit": String("crop")})

	if removed.Has("fit") {
		t.Errorf("fit should be fully removed, got %q", removed.Encode())
	}
	if removed.Encode() != p.Encode() {
		t.Errorf("remove after add = %q, want %q", removed.Encode(), p.Encode())
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		updates Updates
		action  Action
		want    string
	}{
		{
			name:    "add dispatches to AddOrMerge",
			query:   "auto=format",
			updates: Updates{"fit": String("crop")},
			action:  ActionAdd,
			want:    "auto=format&fit=crop",
		},
		{
			name:    "add merges existing parameters",
			query:   "auto=format",
			updates: Updates{"auto": String("format"), "fit": String("crop")},
			action:  ActionAdd,
			want:    "auto=format&fit=crop",
		},
		{
			name:    "remove dispatches to Remove",
			query:   "auto=format&fit=crop",
			updates: Updates{"fit": String("crop")},
			action:  ActionRemove,
			want:    "auto=format",
		},
		{
			name:    "remove several parameters",
			query:   "auto=format&fit=crop&quality=80",
			updates: Updates{"fit": String("crop"), "quality": String("80")},
			action:  ActionRemove,
			want:    "auto=format",
		},
		{
			name:    "remove missing parameters gracefully",
			query:   "auto=format&fit=crop",
			updates: Updates{"quality": String("80")},
			action:  ActionRemove,
			want:    "auto=format&fit=crop",
		},
		{
			name:    "unknown action returns input unchanged",
			query:   "auto=format",
			updates: Updates{"fit": String("crop")},
			action:  Action("toggle"),
			want:    "auto=format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(Parse(tt.query), tt.updates, tt.action).Encode()
			if got != tt.want {
				t.Errorf("Reduce(%s) = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

// The grouped record must always be re-derivable from the URL after any
// sequence of reduces.
func TestReduce_RederivationStaysConsistent(t *testing.T) {
	src := "https://demo.imgix.net/dog.png?auto=format"
	base, p := SplitURL(src)

	steps := []struct {
		updates Updates
		action  Action
	}{
		{Updates{"auto": String("enhance")}, ActionAdd},
		{Updates{"bg-remove": Bool(true)}, ActionAdd},
		{Updates{"upscale": Bool(true)}, ActionAdd},
		{Updates{"auto": String("format")}, ActionRemove},
		{Updates{"bg-remove": Bool(true)}, ActionRemove},
	}

	for i, step := range steps {
		p = Reduce(p, step.updates, step.action)
		url := JoinURL(base, p)

		_, reparsed := SplitURL(url)
		if !reflect.DeepEqual(GroupByKey(reparsed), GroupByKey(p)) {
			t.Fatalf("step %d: re-derived record diverged for %q", i, url)
		}
	}
}

func TestStringifyJSONFields(t *testing.T) {
	tests := []struct {
		name       string
		attributes map[string]interface{}
		fields     []string
		wantField  string
		want       string
	}{
		{
			name: "stringifies the named field",
			attributes: map[string]interface{}{
				"tags": map[string]interface{}{"animal": "dog"},
			},
			fields:    []string{"tags"},
			wantField: "tags",
			want:      `{"animal":"dog"}`,
		},
		{
			name: "replaces null values with empty strings",
			attributes: map[string]interface{}{
				"custom_fields": map[string]interface{}{"alt": nil},
			},
			fields:    []string{"custom_fields"},
			wantField: "custom_fields",
			want:      `{"alt":""}`,
		},
		{
			name: "replaces nested nulls inside arrays",
			attributes: map[string]interface{}{
				"tags": []interface{}{"dog", nil},
			},
			fields:    []string{"tags"},
			wantField: "tags",
			want:      `["dog",""]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StringifyJSONFields(tt.attributes, tt.fields...)
			if got[tt.wantField] != tt.want {
				t.Errorf("field %q = %v, want %q", tt.wantField, got[tt.wantField], tt.want)
			}
		})
	}
}

func TestStringifyJSONFields_LeavesOthersAlone(t *testing.T) {
	attributes := map[string]interface{}{
		"tags":        map[string]interface{}{"animal": "dog"},
		"origin_path": "/dog.png",
	}

	got := StringifyJSONFields(attributes, "tags")
	if got["origin_path"] != "/dog.png" {
		t.Errorf("origin_path = %v, want unchanged", got["origin_path"])
	}

	got = StringifyJSONFields(attributes, "missing")
	if !reflect.DeepEqual(got, attributes) {
		t.Errorf("missing field changed the map: %v", got)
	}

	if _, ok := attributes["tags"].(map[string]interface{}); !ok {
		t.Error("input map was mutated")
	}
}
