// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Resolution logic lives in the internal packages.
package main

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	_ "github.com/lib/pq"

	"persondir/internal/cache"
	"persondir/internal/merge"
	"persondir/internal/platform/config"
	"persondir/internal/platform/httpserver"
	"persondir/internal/platform/logger"
	"persondir/internal/platform/metrics"
	platformredis "persondir/internal/platform/redis"
	"persondir/internal/resolver"
	"persondir/internal/rowset"
	"persondir/internal/source"
	ldapsource "persondir/internal/source/ldap"
	"persondir/internal/source/rest"
	sqlsource "persondir/internal/source/sql"
	httptransport "persondir/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	sources, health, cleanup, err := buildSources(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	composite, err := resolver.New(resolver.Config{
		Sources:           sources,
		Strategy:          mergeStrategy(cfg),
		UsernameAttribute: cfg.UsernameAttribute,
		Parallel:          cfg.ParallelSources,
		Logger:            log,
		Metrics:           m,
	})
	if err != nil {
		return err
	}

	store, redisClient, err := buildStore(cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health = append(health, redisClient.Health)
	}

	cached, err := cache.New(cache.Config{
		Next:              composite,
		Store:             store,
		UsernameAttribute: cfg.UsernameAttribute,
		Logger:            log,
		Metrics:           m,
	})
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		People: httptransport.NewPeopleHandler(cached, log),
		Cache:  httptransport.NewCacheHandler(cached, log),
		Logger: log,
		Health: func(r *http.Request) error {
			for _, check := range health {
				if err := check(r.Context()); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting persondir", "addr", cfg.Addr, "sources", len(sources))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func mergeStrategy(cfg config.Config) merge.Strategy {
	switch cfg.MergeStrategy {
	case "replacing":
		return merge.Replacing{}
	case "noncolliding":
		return merge.NoncollidingAdditive{}
	default:
		return merge.MultivaluedAdditive{DistinctValues: cfg.DistinctValues}
	}
}

// buildSources constructs every configured source adapter in precedence
// order: LDAP, single-row SQL, multi-row SQL, REST. At least one backend
// must be configured.
func buildSources(cfg config.Config, log *slog.Logger) ([]source.Source, []func(context.Context) error, func(), error) {
	var (
		sources []source.Source
		health  []func(context.Context) error
		closers []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.LDAP.URL != "" {
		conn, err := goldap.DialURL(cfg.LDAP.URL)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("ldap dial: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		if cfg.LDAP.BindDN != "" {
			if err := conn.Bind(cfg.LDAP.BindDN, cfg.LDAP.BindPassword); err != nil {
				cleanup()
				return nil, nil, nil, fmt.Errorf("ldap bind: %w", err)
			}
		}

		adapter, err := ldapsource.New(source.Config{
			Name:              "ldap",
			Required:          cfg.LDAP.Required,
			UsernameAttribute: cfg.UsernameAttribute,
			QueryAttributes:   cfg.LDAP.QueryAttributes,
			ResultAttributes:  cfg.LDAP.ResultAttributes,
		}, source.JoinAnd, ldapsource.NewClient(conn, cfg.LDAP.BaseDN, cfg.LDAP.SizeLimit), log)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		sources = append(sources, adapter)
	}

	if cfg.Postgres.DSN != "" {
		db, err := stdsql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("postgres open: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		closers = append(closers, func() { _ = db.Close() })
		health = append(health, db.PingContext)

		exec := sqlsource.NewDBExecutor(db)

		adapter, err := sqlsource.New(source.Config{
			Name:              "postgres",
			Required:          cfg.Postgres.Required,
			UsernameAttribute: cfg.UsernameAttribute,
			QueryAttributes:   cfg.Postgres.QueryAttributes,
			ResultAttributes:  cfg.Postgres.ResultAttributes,
		}, source.JoinAnd, cfg.Postgres.Query, exec, log)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		sources = append(sources, adapter)

		if cfg.Postgres.MultiRow {
			multirow, err := sqlsource.NewMultiRow(source.Config{
				Name:              "postgres-attributes",
				Required:          cfg.Postgres.Required,
				UsernameAttribute: cfg.UsernameAttribute,
				QueryAttributes:   cfg.Postgres.MultiRowQueryAttrs,
			}, source.JoinOr, cfg.Postgres.MultiRowQuery, rowset.Grouper{
				UsernameColumn:   cfg.Postgres.MultiRowUsernameCol,
				NameValueColumns: cfg.Postgres.MultiRowNameValueCols,
			}, exec, log)
			if err != nil {
				cleanup()
				return nil, nil, nil, err
			}
			sources = append(sources, multirow)
		}
	}

	if cfg.REST.URL != "" {
		adapter, err := rest.New(source.Config{
			Name:              "rest",
			Required:          cfg.REST.Required,
			UsernameAttribute: cfg.UsernameAttribute,
			ResultAttributes:  cfg.REST.ResultAttributes,
		}, rest.Options{
			URL:               cfg.REST.URL,
			Method:            cfg.REST.Method,
			BasicAuthUsername: cfg.REST.BasicAuthUsername,
			BasicAuthPassword: cfg.REST.BasicAuthPassword,
		}, &http.Client{Timeout: 10 * time.Second}, log)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		sources = append(sources, adapter)
	}

	if len(sources) == 0 {
		cleanup()
		return nil, nil, nil, errors.New("no sources configured: set PERSONDIR_LDAP_URL, PERSONDIR_POSTGRES_DSN, or PERSONDIR_REST_URL")
	}
	return sources, health, cleanup, nil
}

// buildStore picks the cache store: Redis when configured, in-memory
// otherwise.
func buildStore(cfg config.Config, log *slog.Logger) (cache.Store, *platformredis.Client, error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("redis not configured, using in-memory cache store")
		return cache.NewMemoryStore(), nil, nil
	}
	return cache.NewRedisStore(client.Client, cfg.Redis.CacheTTL), client, nil
}
