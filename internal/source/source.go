// Package source defines the backend-agnostic adapter contract: how an
// abstract multi-valued query is translated into a backend query, and how
// backend rows are translated back into person records. Backend-specific
// adapters live in the subpackages; the shared translation helpers here are
// plain functions rather than a base type.
package source

import (
	"context"
	"sort"

	"persondir/internal/attribute"
)

// Join selects the logical operator used when an adapter combines multiple
// query clauses.
type Join string

const (
	JoinAnd Join = "AND"
	JoinOr  Join = "OR"
)

// Source is one configured backend adapter. Implementations translate the
// query, execute it against their backend, and map rows back into people.
// People returns (nil, nil) when the translated query is empty (no-query):
// an adapter must never answer a vacuous filter with a fetch-all.
type Source interface {
	Name() string

	// Required marks this source as fatal-on-failure for a composite
	// resolution. Optional sources that fail simply contribute nothing.
	Required() bool

	People(ctx context.Context, query attribute.Query) ([]attribute.Person, error)

	// PossibleUserAttributeNames is the static vocabulary of exposed
	// attribute names this source can contribute. No backend call.
	PossibleUserAttributeNames() []string

	// AvailableQueryAttributes is the static vocabulary of exposed query
	// attribute names this source understands. No backend call.
	AvailableQueryAttributes() []string
}

// Config is the construction-time wiring shared by every adapter. All mapping
// is explicit; nothing is discovered at runtime.
type Config struct {
	// Name identifies the adapter in logs and errors.
	Name string

	// Required makes adapter failure fatal for the whole resolution.
	Required bool

	// UsernameAttribute is the exposed attribute holding the identifier.
	UsernameAttribute string

	// QueryAttributes maps an exposed query-attribute name to the backend
	// attribute(s) queried for it. Query attributes absent from this map are
	// silently skipped.
	QueryAttributes map[string][]string

	// ResultAttributes maps a backend column/attribute name to the exposed
	// name(s) it is published under. Backend columns absent from this map are
	// dropped.
	ResultAttributes map[string][]string

	// MandatoryColumns lists backend columns that must be present in every
	// row. A configured column missing from a row is otherwise treated as a
	// null single-value entry.
	MandatoryColumns []string
}

// PossibleUserAttributeNames returns the sorted exposed-name vocabulary
// derived from the result mapping.
func (c Config) PossibleUserAttributeNames() []string {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(c.ResultAttributes))
	for _, exposed := range c.ResultAttributes {
		for _, name := range exposed {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AvailableQueryAttributes returns the sorted exposed query-attribute
// vocabulary derived from the query mapping.
func (c Config) AvailableQueryAttributes() []string {
	names := make([]string, 0, len(c.QueryAttributes))
	for name := range c.QueryAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Config) mandatory(column string) bool {
	for _, m := range c.MandatoryColumns {
		if m == column {
			return true
		}
	}
	return false
}
