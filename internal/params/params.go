// Package params implements the query-parameter algebra that keeps an
// asset's imgix rendering URL and its structured parameter record in sync.
// The URL query string is the source of truth; the grouped record is always
// re-derived from it after every add or remove.
package params

import (
	"net/url"
	"strings"
)

// Pair is a single key/value occurrence in a query string. Order matters, so
// a query string is modeled as an ordered slice of pairs rather than a map.
type Pair struct {
	Key   string
	Value string
}

// Params is an ordered list of query-string pairs. A key may occur more than
// once, and a single value may carry a comma-joined list standing in for
// multiple values (imgix's multi-valued parameter convention, e.g.
// auto=format,enhance).
type Params []Pair

// Parse decodes a query string (with or without a leading "?") into ordered
// pairs. Malformed escape sequences keep the raw text rather than dropping
// the pair.
func Parse(query string) Params {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return Params{}
	}

	p := Params{}
	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		p = append(p, Pair{Key: key, Value: value})
	}
	return p
}

// Encode serializes the pairs back into a query string without a leading
// "?". Commas inside values are percent-encoded.
func (p Params) Encode() string {
	var b strings.Builder
	for i, pair := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Has reports whether key occurs at least once.
func (p Params) Has(key string) bool {
	for _, pair := range p {
		if pair.Key == key {
			return true
		}
	}
	return false
}

// Get returns the value of the first occurrence of key.
func (p Params) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

// Set replaces the first occurrence of key with value and removes any later
// occurrences. If key is absent it is appended.
func (p Params) Set(key, value string) Params {
	out := make(Params, 0, len(p)+1)
	replaced := false
	for _, pair := range p {
		if pair.Key == key {
			if replaced {
				continue
			}
			out = append(out, Pair{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, pair)
	}
	if !replaced {
		out = append(out, Pair{Key: key, Value: value})
	}
	return out
}

// Delete removes every occurrence of key.
func (p Params) Delete(key string) Params {
	out := make(Params, 0, len(p))
	for _, pair := range p {
		if pair.Key == key {
			continue
		}
		out = append(out, pair)
	}
	return out
}

// SplitURL separates a URL (or bare path) into everything before the first
// "?" and the parsed query parameters after it.
func SplitURL(src string) (string, Params) {
	base, query, found := strings.Cut(src, "?")
	if !found {
		return base, Params{}
	}
	return base, Parse(query)
}

// JoinURL reattaches parameters to a base URL. An empty parameter list
// yields the bare base.
func JoinURL(base string, p Params) string {
	if len(p) == 0 {
		return base
	}
	return base + "?" + p.Encode()
}
