// Package sql implements the relational adapters: a WHERE-fragment builder
// over placeholder parameters, a single-row adapter for one-row-per-identity
// schemas, and a multi-row adapter for (user, attribute-name, attribute-value)
// schemas.
package sql

import (
	"fmt"
	"strings"

	"persondir/internal/source"
)

// whereBuilder accumulates WHERE clauses and their bound arguments under one
// logical join. An empty builder renders to "" which is the no-query signal.
type whereBuilder struct {
	join    source.Join
	clauses []string
	args    []any
}

func newWhereBuilder(join source.Join) *whereBuilder {
	return &whereBuilder{join: join}
}

// append adds one clause per value. A string value containing '*' becomes a
// LIKE match with '%' wildcards, anything else an equality match. Postgres
// ordinal placeholders are allocated in append order.
func (b *whereBuilder) append(column string, values []any) *whereBuilder {
	for _, value := range values {
		text, isString := value.(string)
		if isString && strings.Contains(text, "*") {
			b.args = append(b.args, strings.ReplaceAll(text, "*", "%"))
			b.clauses = append(b.clauses, fmt.Sprintf("%s LIKE $%d", column, len(b.args)))
			continue
		}
		b.args = append(b.args, value)
		b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", column, len(b.args)))
	}
	return b
}

func (b *whereBuilder) render() (string, []any) {
	if b == nil || len(b.clauses) == 0 {
		return "", nil
	}
	op := " AND "
	if b.join == source.JoinOr {
		op = " OR "
	}
	return strings.Join(b.clauses, op), b.args
}
