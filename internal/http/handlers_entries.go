package http

import (
	"encoding/json"
	"net/http"

	"sitelog/internal/core"
)

// handleView returns the entries and statistics visible under the query's selection.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := parseSelection(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := parseOrder(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.logbook.View(sel, order))
}

// handleCreateEntry creates an entry from the query's selection, overridden
// by any fields in the optional JSON body.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, r, formatErr(err))
			return
		}
	}
	muts, err := decodeFields(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.logbook.CreateEntry(r.Context(), sel, muts...)
	if err != nil {
		// A failed save keeps the entry in memory; report its id so a retry does not duplicate it.
		writeErrorBody(w, r, err, errorBody{Error: err.Error(), ID: e.ID})
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.logbook.Entry(pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleReplaceEntry stores the body verbatim under the path's id.
func (s *Server) handleReplaceEntry(w http.ResponseWriter, r *http.Request) {
	var e core.Entry
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = pathParam(r, "id")
	if err := s.logbook.ReplaceEntry(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type updateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	muts, err := decodeFields(map[string]json.RawMessage{req.Field: req.Value})
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.logbook.UpdateEntry(r.Context(), pathParam(r, "id"), muts[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.logbook.DeleteEntry(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
