package source

import (
	"fmt"
	"sort"
	"strings"

	"persondir/internal/attribute"
	"persondir/internal/rowset"
	"persondir/pkg/platform/sentinel"
)

// AppendFunc folds one backend-attribute/values pair into a backend-specific
// query accumulator. The zero value of B means "uninitialized"; the adapter
// creates a fresh accumulator with its configured join on first use.
type AppendFunc[B any] func(builder B, backendAttribute string, values []any) B

// Translate walks the query in deterministic order, remaps each recognized
// exposed attribute to its backend attribute(s), and folds them through
// appendFn. Unrecognized query attributes are skipped. When nothing was
// recognized the builder is vacuous and sentinel.ErrNoQuery is returned so
// callers never execute a fetch-all.
func Translate[B any](cfg Config, query attribute.Query, appendFn AppendFunc[B]) (B, error) {
	var builder B
	matched := false

	for _, exposed := range sortedKeys(query) {
		backendAttributes, ok := cfg.QueryAttributes[exposed]
		if !ok {
			continue
		}
		values := query[exposed]
		for _, backendAttribute := range backendAttributes {
			builder = appendFn(builder, backendAttribute, values)
			matched = true
		}
	}

	if !matched {
		return builder, sentinel.ErrNoQuery
	}
	return builder, nil
}

// MapRow translates one backend row through the configured result mapping.
// Unknown backend columns are dropped. A configured column missing from the
// row becomes a null single-value entry unless declared mandatory, which is a
// malformed result. The returned identifier is the row's value for the
// configured username attribute, or "" when the row did not carry one.
func MapRow(cfg Config, row rowset.Row) (string, attribute.Bag, error) {
	bag := attribute.Bag{}

	for column, exposedNames := range cfg.ResultAttributes {
		value, present := row[column]
		if !present {
			if cfg.mandatory(column) {
				return "", nil, fmt.Errorf("%s: row has no mandatory column %q: %w", cfg.Name, column, sentinel.ErrMalformedResult)
			}
			value = nil
		}
		for _, exposed := range exposedNames {
			bag[exposed] = append(bag[exposed], splat(value)...)
		}
	}

	return usernameFromBag(cfg.UsernameAttribute, bag), bag, nil
}

// usernameFromBag resolves the identifier case-insensitively so adapters with
// differently cased backend schemas still identify their rows.
func usernameFromBag(usernameAttribute string, bag attribute.Bag) string {
	values, ok := bag[usernameAttribute]
	if !ok {
		for name, v := range bag {
			if strings.EqualFold(name, usernameAttribute) {
				values = v
				break
			}
		}
	}
	if len(values) == 0 || values[0] == nil {
		return ""
	}
	return fmt.Sprint(values[0])
}

// splat keeps multi-valued backend cells (LDAP attributes) flat in the bag
// while lifting scalars into single-value sequences.
func splat(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{value}
	}
}

func sortedKeys(query attribute.Query) []string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
