package http

import (
	"net/http"

	"sitelog/internal/core"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.logbook.Categories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.logbook.AddCategory(r.Context(), req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.logbook.Categories())
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.logbook.RemoveCategory(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSubCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category := pathParam(r, "name")
	if err := s.logbook.AddSubCategory(r.Context(), category, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, core.CategoryNode{Name: category, SubCategories: s.logbook.SubCategoriesOf(category)})
}

func (s *Server) handleRemoveSubCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.logbook.RemoveSubCategory(r.Context(), pathParam(r, "name"), pathParam(r, "sub")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, core.LocationPresets)
}
