package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"persondir/internal/cache"
	"persondir/pkg/platform/httputil"
)

// CacheAdmin is the slice of the caching decorator the admin endpoints need.
type CacheAdmin interface {
	Stats(ctx context.Context) (cache.Stats, error)
	Flush(ctx context.Context) error
	RemovePerson(ctx context.Context, username string) (bool, error)
}

// CacheHandler exposes the caching decorator's counters and invalidation.
type CacheHandler struct {
	cache  CacheAdmin
	logger *slog.Logger
}

// NewCacheHandler constructs the handler with its dependencies.
func NewCacheHandler(admin CacheAdmin, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{cache: admin, logger: logger}
}

// Register mounts the cache admin endpoints on the router.
func (h *CacheHandler) Register(r chi.Router) {
	r.Get("/cache/stats", h.HandleStats)
	r.Post("/cache/flush", h.HandleFlush)
	r.Delete("/cache/people/{username}", h.HandleRemovePerson)
}

// HandleStats handles GET /cache/stats.
func (h *CacheHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cache stats failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleFlush handles POST /cache/flush.
func (h *CacheHandler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Flush(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "cache flush failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// HandleRemovePerson handles DELETE /cache/people/{username}: evicts one
// cached single-person entry.
func (h *CacheHandler) HandleRemovePerson(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	removed, err := h.cache.RemovePerson(r.Context(), username)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cache remove failed", "username", username, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}
