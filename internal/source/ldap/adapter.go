package ldap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"persondir/internal/attribute"
	"persondir/internal/rowset"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
)

// Searcher executes an encoded filter against the directory and returns one
// row per entry, keyed by directory attribute name. Connection handling, TLS
// and timeouts live behind this interface.
type Searcher interface {
	Search(ctx context.Context, filter string, attributes []string) ([]rowset.Row, error)
}

// Adapter resolves people from a directory server.
type Adapter struct {
	cfg      source.Config
	join     source.Join
	searcher Searcher
	logger   *slog.Logger

	// returning trims the attributes requested on the wire to the configured
	// result mapping.
	returning []string
}

// New wires an LDAP adapter. The searcher is required.
func New(cfg source.Config, join source.Join, searcher Searcher, logger *slog.Logger) (*Adapter, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%s: searcher must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if join == "" {
		join = source.JoinAnd
	}
	if logger == nil {
		logger = slog.Default()
	}

	returning := make([]string, 0, len(cfg.ResultAttributes))
	for column := range cfg.ResultAttributes {
		returning = append(returning, column)
	}
	sort.Strings(returning)

	return &Adapter{cfg: cfg, join: join, searcher: searcher, logger: logger, returning: returning}, nil
}

func (a *Adapter) Name() string   { return a.cfg.Name }
func (a *Adapter) Required() bool { return a.cfg.Required }

func (a *Adapter) PossibleUserAttributeNames() []string { return a.cfg.PossibleUserAttributeNames() }
func (a *Adapter) AvailableQueryAttributes() []string   { return a.cfg.AvailableQueryAttributes() }

// People translates the query into a directory filter and maps the matching
// entries. An empty translated filter contributes nothing.
func (a *Adapter) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	builder, err := source.Translate(a.cfg, query, a.append)
	if err != nil {
		if errors.Is(err, sentinel.ErrNoQuery) {
			return nil, nil
		}
		return nil, err
	}

	filter := builder.Encode()
	if filter == "" {
		return nil, nil
	}

	rows, err := a.searcher.Search(ctx, filter, a.returning)
	if err != nil {
		return nil, fmt.Errorf("%s: directory search: %v: %w", a.cfg.Name, err, sentinel.ErrBackend)
	}

	people := make([]attribute.Person, 0, len(rows))
	for _, row := range rows {
		username, bag, err := source.MapRow(a.cfg, row)
		if err != nil {
			return nil, err
		}
		people = append(people, attribute.NewPerson(username, bag))
	}

	a.logger.Debug("directory query complete",
		"source", a.cfg.Name,
		"filter", filter,
		"results", len(people),
	)
	return people, nil
}

func (a *Adapter) append(builder *Builder, backendAttribute string, values []any) *Builder {
	if builder == nil {
		builder = NewBuilder(a.join)
	}
	return builder.Append(backendAttribute, values)
}
