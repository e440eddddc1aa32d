package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "petitions"

// Key identifies a cached response.
type Key struct {
	// Path is the request path (e.g. "/petitions.json" or "/petitions/131215.json")
	Path string

	// Query holds the query parameters (e.g. page=2, state=all)
	Query url.Values
}

// NewKey builds the key for a request URL.
func NewKey(u *url.URL) Key {
	if u == nil {
		return Key{}
	}
	return Key{Path: u.Path, Query: u.Query()}
}

// String generates a deterministic key string.
// Format: petitions:<path>:<query1>=<val1>:<query2>=<val2>
//
// Example:
//
//	petitions:petitions.json:page=2:state=all
func (k Key) String() string {
	parts := []string{KeyPrefix}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string{}, k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
