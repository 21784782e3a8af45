package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"persondir/internal/attribute"
	"persondir/internal/merge"
	"persondir/internal/platform/metrics"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
	pkgstrings "persondir/pkg/platform/strings"
)

// Config wires a composite resolver. Sources are consulted in slice order;
// that order is the merge precedence for non-commutative strategies.
type Config struct {
	Sources []source.Source

	// Strategy combines contributions across sources. Defaults to
	// MultivaluedAdditive.
	Strategy merge.Strategy

	// UsernameAttribute is the exposed attribute a single-person lookup
	// queries by. Defaults to "username".
	UsernameAttribute string

	// Parallel fans source queries out concurrently. Results are always
	// collected first and folded in configured order, so the merge outcome
	// does not depend on completion order.
	Parallel bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Composite orchestrates every configured source for one logical query.
type Composite struct {
	sources           []source.Source
	strategy          merge.Strategy
	usernameAttribute string
	parallel          bool
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

// New validates the wiring and builds the composite.
func New(cfg Config) (*Composite, error) {
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("at least one source must be configured: %w", sentinel.ErrConfiguration)
	}
	if cfg.Strategy == nil {
		cfg.Strategy = merge.MultivaluedAdditive{}
	}
	if cfg.UsernameAttribute == "" {
		cfg.UsernameAttribute = "username"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Composite{
		sources:           cfg.Sources,
		strategy:          cfg.Strategy,
		usernameAttribute: cfg.UsernameAttribute,
		parallel:          cfg.Parallel,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
	}, nil
}

// Person merges every source's contribution for one username into a single
// record. The identifier comes from the first source that supplied one, the
// caller's username otherwise. (nil, nil) means confirmed absent.
func (c *Composite) Person(ctx context.Context, username string) (*attribute.Person, error) {
	query := attribute.UsernameQuery(c.usernameAttribute, username)

	contributions, err := c.collect(ctx, query)
	if err != nil {
		c.metrics.IncrementOutcome("person", "error")
		return nil, err
	}

	name := ""
	var bag attribute.Bag
	found := false
	for _, people := range contributions {
		for _, person := range people {
			if name == "" && person.Name != "" {
				name = person.Name
			}
			bag = c.strategy.Merge(bag, person.Attributes)
			found = true
		}
	}

	if !found {
		c.metrics.IncrementOutcome("person", "absent")
		return nil, nil
	}
	if name == "" {
		name = username
	}

	c.metrics.IncrementOutcome("person", "found")
	person := attribute.NewPerson(name, bag)
	return &person, nil
}

// People unions the identities every source matched, merging attribute bags
// for identities that recur across sources. First-seen identity order is
// preserved; source order is the merge precedence.
func (c *Composite) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	contributions, err := c.collect(ctx, query)
	if err != nil {
		c.metrics.IncrementOutcome("people", "error")
		return nil, err
	}

	order := make([]string, 0)
	bags := make(map[string]attribute.Bag)
	for _, people := range contributions {
		for _, person := range people {
			bag, seen := bags[person.Name]
			if !seen {
				order = append(order, person.Name)
			}
			bags[person.Name] = c.strategy.Merge(bag, person.Attributes)
		}
	}

	people := make([]attribute.Person, 0, len(order))
	for _, name := range order {
		people = append(people, attribute.NewPerson(name, bags[name]))
	}

	outcome := "found"
	if len(people) == 0 {
		outcome = "absent"
	}
	c.metrics.IncrementOutcome("people", outcome)
	return people, nil
}

// PossibleUserAttributeNames unions the static attribute vocabularies of all
// sources. No backend is consulted.
func (c *Composite) PossibleUserAttributeNames(_ context.Context) ([]string, error) {
	names := make([]string, 0)
	for _, src := range c.sources {
		names = append(names, src.PossibleUserAttributeNames()...)
	}
	names = pkgstrings.DedupeAndTrim(names)
	sort.Strings(names)
	return names, nil
}

// AvailableQueryAttributes unions the static query vocabularies of all
// sources. No backend is consulted.
func (c *Composite) AvailableQueryAttributes(_ context.Context) ([]string, error) {
	names := make([]string, 0)
	for _, src := range c.sources {
		names = append(names, src.AvailableQueryAttributes()...)
	}
	names = pkgstrings.DedupeAndTrim(names)
	sort.Strings(names)
	return names, nil
}

// collect queries every source and returns contributions indexed by source
// position. A required source's failure aborts the resolution; optional
// failures are logged and contribute nothing.
func (c *Composite) collect(ctx context.Context, query attribute.Query) ([][]attribute.Person, error) {
	contributions := make([][]attribute.Person, len(c.sources))

	if !c.parallel {
		for i, src := range c.sources {
			people, err := c.query(ctx, src, query)
			if err != nil {
				return nil, err
			}
			contributions[i] = people
		}
		return contributions, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			people, err := c.query(gctx, src, query)
			if err != nil {
				return err
			}
			contributions[i] = people
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contributions, nil
}

func (c *Composite) query(ctx context.Context, src source.Source, query attribute.Query) ([]attribute.Person, error) {
	start := time.Now()
	people, err := src.People(ctx, query)
	c.metrics.ObserveSourceLatency(src.Name(), time.Since(start))

	if err != nil {
		c.metrics.IncrementSourceFailure(src.Name())
		if src.Required() {
			return nil, fmt.Errorf("required source %s: %w", src.Name(), err)
		}
		c.logger.Warn("optional source failed, omitting its contribution",
			"source", src.Name(),
			"error", err,
		)
		return nil, nil
	}
	return people, nil
}
