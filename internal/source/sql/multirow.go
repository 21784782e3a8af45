package sql

import (
	"context"
	"fmt"
	"log/slog"

	"persondir/internal/attribute"
	"persondir/internal/rowset"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
)

// MultiRowAdapter resolves people from schemas that store one row per
// attribute-value pair, e.g.:
//
//	USER_NM   ATTR_NM      ATTR_VL
//	jstudent  name.given   joe
//	jstudent  name.family  student
//	badvisor  name.given   bob
//
// Rows are grouped by identifier and folded multivalued-additively before
// the result-attribute mapping is applied.
type MultiRowAdapter struct {
	cfg           source.Config
	join          source.Join
	queryTemplate string
	grouper       rowset.Grouper
	exec          Executor
	logger        *slog.Logger
}

// NewMultiRow wires a multi-row SQL adapter. The grouper's username column
// and name/value column mapping are required.
func NewMultiRow(cfg source.Config, join source.Join, queryTemplate string, grouper rowset.Grouper, exec Executor, logger *slog.Logger) (*MultiRowAdapter, error) {
	if exec == nil {
		return nil, fmt.Errorf("%s: executor must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if queryTemplate == "" {
		return nil, fmt.Errorf("%s: query template must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if grouper.UsernameColumn == "" || len(grouper.NameValueColumns) == 0 {
		return nil, fmt.Errorf("%s: grouper column mapping must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if join == "" {
		join = source.JoinAnd
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiRowAdapter{cfg: cfg, join: join, queryTemplate: queryTemplate, grouper: grouper, exec: exec, logger: logger}, nil
}

func (a *MultiRowAdapter) Name() string   { return a.cfg.Name }
func (a *MultiRowAdapter) Required() bool { return a.cfg.Required }

func (a *MultiRowAdapter) PossibleUserAttributeNames() []string {
	return a.cfg.PossibleUserAttributeNames()
}

func (a *MultiRowAdapter) AvailableQueryAttributes() []string {
	return a.cfg.AvailableQueryAttributes()
}

func (a *MultiRowAdapter) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	rows, err := selectForQuery(ctx, a.cfg, a.join, a.queryTemplate, a.exec, query)
	if err != nil || rows == nil {
		return nil, err
	}

	grouped, err := a.grouper.Group(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}

	people := make([]attribute.Person, 0, len(grouped))
	for _, person := range grouped {
		people = append(people, attribute.NewPerson(person.Name, a.remap(person.Attributes)))
	}

	a.logger.Debug("multi-row sql query complete", "source", a.cfg.Name, "results", len(people))
	return people, nil
}

// remap applies the result-attribute mapping to a grouped bag. With no
// mapping configured the stored attribute names pass through unchanged;
// otherwise unmapped names are dropped.
func (a *MultiRowAdapter) remap(bag attribute.Bag) attribute.Bag {
	if len(a.cfg.ResultAttributes) == 0 {
		return bag
	}
	out := attribute.Bag{}
	for stored, values := range bag {
		for _, exposed := range a.cfg.ResultAttributes[stored] {
			out[exposed] = append(out[exposed], values...)
		}
	}
	return out
}
