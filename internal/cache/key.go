// Package cache provides the caching decorator that fronts a resolver: a
// key discipline keyed by operation plus normalized arguments, a storage
// contract, and in-memory and Redis-backed stores.
package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"persondir/internal/attribute"
)

// Operation discriminates which resolver operation produced a cached value.
// Two operations invoked with equal-looking arguments must never share an
// entry, so the discriminator is always part of the key.
type Operation string

const (
	OpPerson          Operation = "getPerson"
	OpPeople          Operation = "getPeople"
	OpAttributeNames  Operation = "getPossibleUserAttributeNames"
	OpQueryAttributes Operation = "getAvailableQueryAttributes"
)

// zeroArgMarker keys operations that take no arguments.
const zeroArgMarker = "-"

// Key derives the cache key for one operation invocation. Query attribute
// names are sorted so logically equal queries normalize to the same key;
// names and values are escaped so they cannot forge the separators.
func Key(op Operation, query attribute.Query) string {
	if len(query) == 0 {
		return string(op) + "|" + zeroArgMarker
	}

	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		values := make([]string, 0, len(query[name]))
		for _, v := range query[name] {
			values = append(values, url.QueryEscape(fmt.Sprintf("%v", v)))
		}
		pairs = append(pairs, url.QueryEscape(name)+"="+strings.Join(values, ","))
	}
	return string(op) + "|" + strings.Join(pairs, "&")
}

// UsernameKey is the single-person lookup key for one username.
func UsernameKey(usernameAttribute, username string) string {
	return Key(OpPerson, attribute.UsernameQuery(usernameAttribute, username))
}
