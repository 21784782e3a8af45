// Package rowset groups one-row-per-attribute backend results into per-identity
// attribute bags. Some stores keep user attributes in a (user, attribute-name,
// attribute-value) table; a query for one user then returns one row per
// attribute and the rows must be folded back into a single record.
package rowset

import (
	"fmt"

	"persondir/internal/attribute"
	"persondir/internal/merge"
	"persondir/pkg/platform/sentinel"
)

// Row is one raw backend row, keyed by backend column name. A nil value under
// a present key is legitimate; key absence is a contract violation for
// declared columns.
type Row map[string]any

// Grouper folds a row stream into identities. NameColumn rows carry the
// attribute name, and each name column maps to one or more value columns.
type Grouper struct {
	// UsernameColumn is the column holding the identifier. It must be present
	// and non-nil on every row.
	UsernameColumn string

	// NameValueColumns maps an attribute-name column to the value column(s)
	// read for it. Every declared column must exist as a key in each row.
	NameValueColumns map[string][]string
}

// Group aggregates rows into one Person per distinct identifier, in first-seen
// order. Colliding attribute names within one identity accumulate
// multivalued-additively.
func (g Grouper) Group(rows []Row) ([]attribute.Person, error) {
	additive := merge.MultivaluedAdditive{}

	order := make([]string, 0)
	bags := make(map[string]attribute.Bag)

	for _, row := range rows {
		username, err := g.username(row)
		if err != nil {
			return nil, err
		}

		bag, ok := bags[username]
		if !ok {
			bag = attribute.Bag{}
			bags[username] = bag
			order = append(order, username)
		}

		for nameColumn, valueColumns := range g.NameValueColumns {
			attrName, ok := row[nameColumn]
			if !ok {
				return nil, fmt.Errorf("row has no attribute name column %q: %w", nameColumn, sentinel.ErrMalformedResult)
			}

			values := make([]any, 0, len(valueColumns))
			for _, valueColumn := range valueColumns {
				value, ok := row[valueColumn]
				if !ok {
					return nil, fmt.Errorf("row has no attribute value column %q: %w", valueColumn, sentinel.ErrMalformedResult)
				}
				values = append(values, value)
			}

			bags[username] = additive.Merge(bag, attribute.Bag{fmt.Sprint(attrName): values})
		}
	}

	people := make([]attribute.Person, 0, len(order))
	for _, username := range order {
		people = append(people, attribute.NewPerson(username, bags[username]))
	}
	return people, nil
}

func (g Grouper) username(row Row) (string, error) {
	value, ok := row[g.UsernameColumn]
	if !ok || value == nil {
		return "", fmt.Errorf("row has no username column %q: %w", g.UsernameColumn, sentinel.ErrMalformedResult)
	}
	return fmt.Sprint(value), nil
}
