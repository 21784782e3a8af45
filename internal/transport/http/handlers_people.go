package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"persondir/internal/attribute"
	"persondir/internal/resolver"
	"persondir/pkg/platform/httputil"
)

// PeopleHandler serves lookups and discovery over the configured resolver.
type PeopleHandler struct {
	resolver resolver.Resolver
	logger   *slog.Logger
}

// NewPeopleHandler constructs the handler with its dependencies.
func NewPeopleHandler(res resolver.Resolver, logger *slog.Logger) *PeopleHandler {
	return &PeopleHandler{resolver: res, logger: logger}
}

// Register mounts the resolution endpoints on the router.
func (h *PeopleHandler) Register(r chi.Router) {
	r.Get("/people/{username}", h.HandlePerson)
	r.Post("/people/search", h.HandleSearch)
	r.Get("/attributes", h.HandleAttributeNames)
	r.Get("/query-attributes", h.HandleQueryAttributes)
}

// HandlePerson handles GET /people/{username}: the single-person lookup.
// A confirmed absent person is a 404, not an error.
func (h *PeopleHandler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	person, err := h.resolver.Person(ctx, username)
	if err != nil {
		h.logger.ErrorContext(ctx, "person lookup failed",
			"username", username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if person == nil {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// searchRequest is the POST /people/search body: attribute name to value or
// value list. Scalars are lifted to single-element lists.
type searchRequest map[string]any

// HandleSearch handles POST /people/search: the multi-person query. An
// empty result is an empty list, never a 404.
func (h *PeopleHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_body",
			"error_description": "request body must be a JSON object of attribute criteria",
		})
		return
	}
	if len(req) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_body",
			"error_description": "at least one query attribute is required",
		})
		return
	}

	people, err := h.resolver.People(ctx, attribute.QueryFromScalars(req))
	if err != nil {
		h.logger.ErrorContext(ctx, "people search failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if people == nil {
		people = []attribute.Person{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"people": people})
}

// HandleAttributeNames handles GET /attributes: the names the configured
// sources can contribute.
func (h *PeopleHandler) HandleAttributeNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.resolver.PossibleUserAttributeNames(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"attributes": names})
}

// HandleQueryAttributes handles GET /query-attributes: the names the
// configured sources accept in queries.
func (h *PeopleHandler) HandleQueryAttributes(w http.ResponseWriter, r *http.Request) {
	names, err := h.resolver.AvailableQueryAttributes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"attributes": names})
}
