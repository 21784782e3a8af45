// Package resolver exposes the operation set consumed by identity layers and
// the composite implementation that orchestrates the configured sources.
package resolver

import (
	"context"

	"persondir/internal/attribute"
)

// Resolver is the directory-agnostic resolution surface. A single-person
// lookup that finds nothing returns (nil, nil); a set lookup that finds
// nothing returns an empty slice. The discovery operations answer from the
// sources' static vocabularies without backend calls.
type Resolver interface {
	Person(ctx context.Context, username string) (*attribute.Person, error)
	People(ctx context.Context, query attribute.Query) ([]attribute.Person, error)
	PossibleUserAttributeNames(ctx context.Context) ([]string, error)
	AvailableQueryAttributes(ctx context.Context) ([]string, error)
}
