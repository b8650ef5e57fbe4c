// Package http serves the logbook as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sitelog/internal/log"
	"sitelog/internal/services"
	"sitelog/internal/transfer"
)

// Options tune a Server. Zero values pick defaults.
type Options struct {
	// ExportFormat is used by /api/export when no format is requested.
	ExportFormat string
	// RequestsPerMinute caps mutating requests per client.
	RequestsPerMinute int
	Logger            *log.Logger
}

type Server struct {
	http.Server
	logbook      *services.Logbook
	limiter      *rateLimiter
	exportFormat string
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, lb *services.Logbook, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = transfer.FormatJSON
	}
	s := &Server{
		logbook:      lb,
		limiter:      newRateLimiter(opts.RequestsPerMinute),
		exportFormat: opts.ExportFormat,
		logger:       opts.Logger.WithComponent(log.ComponentHTTP),
	}
	go s.limiter.startCleanup(5 * time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Use(middleware.Timeout(2 * time.Minute))

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleAddCategory)
		r.Delete("/categories/{name}", s.handleRemoveCategory)
		r.Post("/categories/{name}/subcategories", s.handleAddSubCategory)
		r.Delete("/categories/{name}/subcategories/{sub}", s.handleRemoveSubCategory)
		r.Get("/locations", handleLocations)

		r.Get("/entries", s.handleView)
		r.Post("/entries", s.handleCreateEntry)
		r.Get("/entries/{id}", s.handleGetEntry)
		r.Put("/entries/{id}", s.handleReplaceEntry)
		r.Patch("/entries/{id}", s.handleUpdateEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)

		r.Get("/analysis", s.handleLastAnalysis)
		r.Post("/analysis", s.handleAnalyze)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})
	return r
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
