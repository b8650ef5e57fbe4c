package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"sitelog/internal/core"
	"sitelog/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	// ID names an entry that was created even though the request failed.
	ID string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps the core sentinels onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateKey):
		return http.StatusConflict
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrAdapterFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorBody(w, r, err, errorBody{Error: err.Error()})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, err error, body errorBody) {
	status := errorStatus(err)
	if status >= 500 {
		logFor(r).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
	}
	writeJSON(w, status, body)
}

func logFor(r *http.Request) *log.Logger {
	return log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
}
