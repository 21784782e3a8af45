package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"persondir/internal/attribute"
	"persondir/internal/platform/metrics"
	"persondir/internal/resolver"
	"persondir/pkg/platform/sentinel"
)

// Config wires a caching decorator around a resolver.
type Config struct {
	Next  resolver.Resolver
	Store Store

	// UsernameAttribute must match the wrapped resolver's, so single-person
	// keys normalize identically. Defaults to "username".
	UsernameAttribute string

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Resolver decorates another resolver with an operation-keyed cache.
// A confirmed absent result is a legitimate cached value, stored and
// served like any other. Store failures degrade to pass-through; they
// never fail the resolution.
type Resolver struct {
	next              resolver.Resolver
	store             Store
	usernameAttribute string
	logger            *slog.Logger
	metrics           *metrics.Metrics

	hits    atomic.Int64
	misses  atomic.Int64
	puts    atomic.Int64
	removes atomic.Int64
	flushes atomic.Int64
}

// Stats is a point-in-time snapshot of the decorator's counters. Size is
// read from the backing store, the rest accumulate since construction.
type Stats struct {
	Size    int64 `json:"size"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Puts    int64 `json:"puts"`
	Removes int64 `json:"removes"`
	Flushes int64 `json:"flushes"`
}

// envelope is the stored form of one resolver result. Exactly one field is
// meaningful per operation; Absent marks a computed "no such person" so it
// is never confused with a missing entry. Values round-trip through JSON,
// so non-string attribute values come back in their JSON shapes.
type envelope struct {
	Person *attribute.Person  `json:"person,omitempty"`
	People []attribute.Person `json:"people,omitempty"`
	Names  []string           `json:"names,omitempty"`
	Absent bool               `json:"absent,omitempty"`
}

// New validates the wiring and builds the decorator.
func New(cfg Config) (*Resolver, error) {
	if cfg.Next == nil {
		return nil, fmt.Errorf("a resolver to decorate must be configured: %w", sentinel.ErrConfiguration)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("a cache store must be configured: %w", sentinel.ErrConfiguration)
	}
	if cfg.UsernameAttribute == "" {
		cfg.UsernameAttribute = "username"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		next:              cfg.Next,
		store:             cfg.Store,
		usernameAttribute: cfg.UsernameAttribute,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
	}, nil
}

func (r *Resolver) Person(ctx context.Context, username string) (*attribute.Person, error) {
	key := UsernameKey(r.usernameAttribute, username)

	if env, ok := r.lookup(ctx, key); ok {
		if env.Absent {
			return nil, nil
		}
		return env.Person, nil
	}

	person, err := r.next.Person(ctx, username)
	if err != nil {
		return nil, err
	}
	r.put(ctx, key, envelope{Person: person, Absent: person == nil})
	return person, nil
}

func (r *Resolver) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	key := Key(OpPeople, query)

	if env, ok := r.lookup(ctx, key); ok {
		if env.People == nil {
			return []attribute.Person{}, nil
		}
		return env.People, nil
	}

	people, err := r.next.People(ctx, query)
	if err != nil {
		return nil, err
	}
	r.put(ctx, key, envelope{People: people})
	return people, nil
}

func (r *Resolver) PossibleUserAttributeNames(ctx context.Context) ([]string, error) {
	return r.names(ctx, OpAttributeNames, r.next.PossibleUserAttributeNames)
}

func (r *Resolver) AvailableQueryAttributes(ctx context.Context) ([]string, error) {
	return r.names(ctx, OpQueryAttributes, r.next.AvailableQueryAttributes)
}

func (r *Resolver) names(ctx context.Context, op Operation, compute func(context.Context) ([]string, error)) ([]string, error) {
	key := Key(op, nil)

	if env, ok := r.lookup(ctx, key); ok {
		return env.Names, nil
	}

	names, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	r.put(ctx, key, envelope{Names: names})
	return names, nil
}

// Remove evicts one operation's entry. The removed counter advances only
// when an entry actually existed.
func (r *Resolver) Remove(ctx context.Context, op Operation, query attribute.Query) (bool, error) {
	removed, err := r.store.Remove(ctx, Key(op, query))
	if err != nil {
		return false, err
	}
	if removed {
		r.removes.Add(1)
		r.metrics.IncrementCacheEvent("remove")
	}
	return removed, nil
}

// RemovePerson evicts the single-person entry for one username.
func (r *Resolver) RemovePerson(ctx context.Context, username string) (bool, error) {
	return r.Remove(ctx, OpPerson, attribute.UsernameQuery(r.usernameAttribute, username))
}

// Flush clears every entry.
func (r *Resolver) Flush(ctx context.Context) error {
	if err := r.store.Flush(ctx); err != nil {
		return err
	}
	r.flushes.Add(1)
	r.metrics.IncrementCacheEvent("flush")
	return nil
}

// Stats snapshots the counters. A store that cannot report its size fails
// the snapshot.
func (r *Resolver) Stats(ctx context.Context) (Stats, error) {
	size, err := r.store.Size(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Size:    size,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Puts:    r.puts.Load(),
		Removes: r.removes.Load(),
		Flushes: r.flushes.Load(),
	}, nil
}

// lookup reads and decodes one entry, charging the hit or miss counter. A
// failing or corrupt store entry is treated as a miss.
func (r *Resolver) lookup(ctx context.Context, key string) (envelope, bool) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed, resolving without cache", "key", key, "error", err)
	}
	if err == nil && ok {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			r.logger.Warn("cache entry undecodable, recomputing", "key", key, "error", err)
		} else {
			r.hits.Add(1)
			r.metrics.IncrementCacheEvent("hit")
			return env, true
		}
	}
	r.misses.Add(1)
	r.metrics.IncrementCacheEvent("miss")
	return envelope{}, false
}

// put encodes and stores one entry, charging the put counter. A failing
// store loses the entry but not the result.
func (r *Resolver) put(ctx context.Context, key string, env envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		r.logger.Warn("cache entry unencodable, skipping put", "key", key, "error", err)
		return
	}
	if _, err := r.store.Put(ctx, key, raw); err != nil {
		r.logger.Warn("cache write failed, result not cached", "key", key, "error", err)
		return
	}
	r.puts.Add(1)
	r.metrics.IncrementCacheEvent("put")
}
