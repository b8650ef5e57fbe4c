package http

import (
	"fmt"
	"net/http"
	"time"

	"sitelog/internal/core"
	"sitelog/internal/log"
	"sitelog/internal/transfer"
)

func formatErr(err error) error {
	return fmt.Errorf("%w: %v", core.ErrFormat, err)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.logbook.Analyze(r.Context(), sel))
}

func (s *Server) handleLastAnalysis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.logbook.LastAnalysis())
}

func (s *Server) codecFor(r *http.Request) (transfer.Codec, error) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.exportFormat
	}
	return transfer.ForFormat(format)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	codec, err := s.codecFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.logbook.Export(codec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("sitelog_export_%s.%s", time.Now().Format(core.DateLayout), codec.Name())
	w.Header().Set("Content-Type", codec.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	codec, err := s.codecFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.logbook.Import(r.Context(), codec, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logFor(r).InfoContext(r.Context(), "Import completed",
		log.FieldFormat, codec.Name(), log.FieldCount, n)
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
