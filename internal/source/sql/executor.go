package sql

import (
	"context"
	"database/sql"
	"fmt"

	"persondir/internal/rowset"
)

// Executor runs a rendered query and returns generic rows. The production
// implementation sits on database/sql; tests substitute a fake.
type Executor interface {
	Select(ctx context.Context, query string, args []any) ([]rowset.Row, error)
}

// Querier is the database/sql surface the executor needs; *sql.DB and
// *sql.Tx both satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DBExecutor executes against a live database handle.
type DBExecutor struct {
	db Querier
}

// NewDBExecutor wraps a database handle. The handle is owned by the caller
// and created once at configuration time.
func NewDBExecutor(db Querier) *DBExecutor {
	return &DBExecutor{db: db}
}

// Select runs the query and materializes every row as a column-name-keyed
// map. []byte cells are converted to string so downstream mapping sees plain
// scalar values.
func (e *DBExecutor) Select(ctx context.Context, query string, args []any) ([]rowset.Row, error) {
	sqlRows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns for %q: %w", query, err)
	}

	var rows []rowset.Row
	for sqlRows.Next() {
		cells := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range cells {
			targets[i] = &cells[i]
		}
		if err := sqlRows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan row for %q: %w", query, err)
		}

		row := make(rowset.Row, len(columns))
		for i, column := range columns {
			if raw, ok := cells[i].([]byte); ok {
				row[column] = string(raw)
				continue
			}
			row[column] = cells[i]
		}
		rows = append(rows, row)
	}
	if err := sqlRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows for %q: %w", query, err)
	}
	return rows, nil
}
