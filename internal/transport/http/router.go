// Package httptransport is the thin HTTP layer over the resolver. Handlers
// delegate to the resolver and cache without embedding resolution logic so
// transport concerns remain isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"persondir/internal/platform/middleware"
	"persondir/pkg/platform/httputil"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	People *PeopleHandler
	Cache  *CacheHandler
	Logger *slog.Logger

	// Health reports backend liveness for /healthz. A nil check means no
	// backend to probe.
	Health func(r *http.Request) error
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger))
	}

	cfg.People.Register(r)
	if cfg.Cache != nil {
		cfg.Cache.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(req); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
