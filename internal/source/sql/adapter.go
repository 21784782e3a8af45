package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"persondir/internal/attribute"
	"persondir/internal/rowset"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
)

// Adapter resolves people from a one-row-per-identity relational schema.
type Adapter struct {
	cfg  source.Config
	join source.Join

	// queryTemplate is the SELECT without a WHERE clause, e.g.
	// "SELECT uid, mail, display_name FROM app_users".
	queryTemplate string

	exec   Executor
	logger *slog.Logger
}

// New wires a single-row SQL adapter. Executor and query template are
// required.
func New(cfg source.Config, join source.Join, queryTemplate string, exec Executor, logger *slog.Logger) (*Adapter, error) {
	if exec == nil {
		return nil, fmt.Errorf("%s: executor must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if queryTemplate == "" {
		return nil, fmt.Errorf("%s: query template must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if join == "" {
		join = source.JoinAnd
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, join: join, queryTemplate: queryTemplate, exec: exec, logger: logger}, nil
}

func (a *Adapter) Name() string   { return a.cfg.Name }
func (a *Adapter) Required() bool { return a.cfg.Required }

func (a *Adapter) PossibleUserAttributeNames() []string { return a.cfg.PossibleUserAttributeNames() }
func (a *Adapter) AvailableQueryAttributes() []string   { return a.cfg.AvailableQueryAttributes() }

func (a *Adapter) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	rows, err := selectForQuery(ctx, a.cfg, a.join, a.queryTemplate, a.exec, query)
	if err != nil || rows == nil {
		return nil, err
	}

	people := make([]attribute.Person, 0, len(rows))
	for _, row := range rows {
		username, bag, err := source.MapRow(a.cfg, row)
		if err != nil {
			return nil, err
		}
		people = append(people, attribute.NewPerson(username, bag))
	}

	a.logger.Debug("sql query complete", "source", a.cfg.Name, "results", len(people))
	return people, nil
}

// selectForQuery translates the query into a WHERE fragment and executes it.
// A vacuous filter returns (nil, nil) without touching the database.
func selectForQuery(ctx context.Context, cfg source.Config, join source.Join, template string, exec Executor, query attribute.Query) ([]rowset.Row, error) {
	builder, err := source.Translate(cfg, query, func(b *whereBuilder, column string, values []any) *whereBuilder {
		if b == nil {
			b = newWhereBuilder(join)
		}
		return b.append(column, values)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNoQuery) {
			return nil, nil
		}
		return nil, err
	}

	where, args := builder.render()
	if where == "" {
		return nil, nil
	}

	rows, err := exec.Select(ctx, template+" WHERE "+where, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", cfg.Name, err, sentinel.ErrBackend)
	}
	return rows, nil
}
