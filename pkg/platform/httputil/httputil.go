// Package httputil centralizes JSON responses and error translation so every
// handler emits the same envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"persondir/pkg/platform/sentinel"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a sentinel-classified error into the JSON error
// envelope. Internal errors omit the description so backend details stay out
// of responses.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	body := map[string]string{"error": code}
	if status != http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrNoQuery):
		return http.StatusBadRequest, "unusable_query"
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrBackend):
		return http.StatusBadGateway, "backend_unavailable"
	case errors.Is(err, sentinel.ErrMalformedResult):
		return http.StatusBadGateway, "malformed_backend_result"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
