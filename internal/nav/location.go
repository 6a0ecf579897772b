// Package nav keeps the shareable navigation state of a chat view: the
// current deep link, a back/forward history, and a file mirror that lets
// other processes navigate a running view.
package nav

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Deep-link query parameters.
const (
	ParamSessionID = "session_id"
	ParamCategory  = "category"
)

// ChatPath is the path of the chat view.
const ChatPath = "/chat"

// paramOrder fixes the order of well-known parameters in String.
var paramOrder = []string{ParamSessionID, ParamCategory}

// Location is a path plus query parameters, e.g.
// "/chat?session_id=abc&category=union".
type Location struct {
	Path  string
	Query url.Values
}

// ChatLocation builds the chat deep link. Empty values are omitted.
func ChatLocation(sessionID, category string) Location {
	loc := Location{Path: ChatPath, Query: url.Values{}}
	if sessionID != "" {
		loc.Query.Set(ParamSessionID, sessionID)
	}
	if category != "" {
		loc.Query.Set(ParamCategory, category)
	}
	return loc
}

// ParseLocation parses a deep link. Absolute URLs are accepted; only their
// path and query are kept.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = ChatPath
	}
	return Location{Path: path, Query: u.Query()}, nil
}

// Param returns the first value of a query parameter.
func (l Location) Param(key string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(key)
}

// SessionID returns the session_id parameter, or "".
func (l Location) SessionID() string { return l.Param(ParamSessionID) }

// Category returns the category parameter, or "".
func (l Location) Category() string { return l.Param(ParamCategory) }

// With returns a copy with key set to value.
func (l Location) With(key, value string) Location {
	q := cloneValues(l.Query)
	q.Set(key, value)
	return Location{Path: l.Path, Query: q}
}

// Without returns a copy with key removed.
func (l Location) Without(key string) Location {
	q := cloneValues(l.Query)
	q.Del(key)
	return Location{Path: l.Path, Query: q}
}

// String encodes the location with session_id and category first.
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}

	keys := make([]string, 0, len(l.Query))
	seen := make(map[string]bool, len(paramOrder))
	for _, k := range paramOrder {
		if _, ok := l.Query[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(l.Query))
	for k := range l.Query {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var b strings.Builder
	b.WriteString(l.Path)
	sep := byte('?')
	for _, k := range keys {
		for _, v := range l.Query[k] {
			b.WriteByte(sep)
			sep = '&'
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Equal reports whether two locations encode identically.
func (l Location) Equal(o Location) bool {
	return l.String() == o.String()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
