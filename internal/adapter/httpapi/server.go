// Package httpapi exposes the assessment engine and the AOI store over HTTP,
// along with the health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
)

// Assessor runs one risk assessment. *engine.Engine implements it.
type Assessor interface {
	Assess(ctx context.Context, req engine.AssessmentRequest) (domain.CompositeReport, error)
}

// Store persists AOIs, displacement samples, and generated reports.
// *postgres.Store implements it; lookups for missing rows return
// sql.ErrNoRows through the error chain.
type Store interface {
	CreateAOI(ctx context.Context, aoi domain.AOI) error
	GetAOI(ctx context.Context, id string) (domain.AOI, error)
	ListAOIs(ctx context.Context) ([]domain.AOI, error)
	DeleteAOI(ctx context.Context, id string) error
	AddSamples(ctx context.Context, aoiID string, samples []domain.DisplacementSample) error
	ListSamples(ctx context.Context, aoiID string) ([]domain.DisplacementSample, error)
	SaveReport(ctx context.Context, aoiID string, report domain.CompositeReport) error
	ListReports(ctx context.Context, aoiID string, limit int) ([]domain.CompositeReport, error)
	GetReport(ctx context.Context, id string) (domain.CompositeReport, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the assessment API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	engine     Assessor
	store      Store
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer builds the router and wraps it in an http.Server. A nil store
// leaves the AOI and report routes unmounted; a nil ready checker reports
// ready unconditionally.
func NewServer(addr string, assessor Assessor, store Store, ready ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		engine: assessor,
		store:  store,
		ready:  ready,
		logger: logger,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", s.handleHealth)
	mux.Get("/readyz", s.handleReady)
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/assessments", s.wrap(s.handleAssess))
		if s.store != nil {
			rt.Post("/aois", s.wrap(s.handleCreateAOI))
			rt.Get("/aois", s.wrap(s.handleListAOIs))
			rt.Get("/aois/{id}", s.wrap(s.handleGetAOI))
			rt.Delete("/aois/{id}", s.wrap(s.handleDeleteAOI))
			rt.Post("/aois/{id}/samples", s.wrap(s.handleAddSamples))
			rt.Get("/aois/{id}/samples", s.wrap(s.handleListSamples))
			rt.Get("/aois/{id}/reports", s.wrap(s.handleListReports))
			rt.Get("/reports/{id}", s.wrap(s.handleGetReport))
		}
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
