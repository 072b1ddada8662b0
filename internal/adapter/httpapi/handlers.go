package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
)

// errBadRequest marks client mistakes that are not covered by a domain
// sentinel: malformed bodies, unknown analyzer names, missing fields.
var errBadRequest = errors.New("bad request")

const defaultReportLimit = 20

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap translates handler errors onto the HTTP status space. Domain
// sentinels keep their detail; storage misses become a plain 404 and
// anything unrecognized is logged and hidden behind a 500.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidGeometry):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrDimensionMismatch), errors.Is(err, domain.ErrFeatureUnavailable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "not found")
		default:
			s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

type assessRequest struct {
	AOIID     string                      `json:"aoi_id,omitempty"`
	Geometry  domain.Geometry             `json:"geometry"`
	Analyzers []string                    `json:"analyzers,omitempty"`
	Samples   []domain.DisplacementSample `json:"samples,omitempty"`
	Features  *domain.FeatureRecord       `json:"features,omitempty"`
}

// POST /v1/assessments
//
// The geometry may be given inline or borrowed from a stored AOI via aoi_id;
// inline fields always win. When a store is configured and aoi_id is set,
// the resulting report is persisted under that AOI.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) error {
	var body assessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}

	analyzers := make([]engine.Analyzer, 0, len(body.Analyzers))
	for _, name := range body.Analyzers {
		a, err := engine.ParseAnalyzer(name)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		analyzers = append(analyzers, a)
	}

	req := engine.AssessmentRequest{
		AOIID:     body.AOIID,
		Geometry:  body.Geometry,
		Analyzers: analyzers,
		Samples:   body.Samples,
		Features:  body.Features,
	}

	if body.AOIID != "" && s.store != nil {
		aoi, err := s.store.GetAOI(r.Context(), body.AOIID)
		if err != nil {
			return fmt.Errorf("load aoi %s: %w", body.AOIID, err)
		}
		if req.Geometry.Kind() == "" {
			req.Geometry = aoi.Geometry
		}
		if len(req.Samples) == 0 {
			samples, err := s.store.ListSamples(r.Context(), body.AOIID)
			if err != nil {
				return fmt.Errorf("load samples for %s: %w", body.AOIID, err)
			}
			req.Samples = samples
		}
	}

	report, err := s.engine.Assess(r.Context(), req)
	if err != nil {
		return err
	}

	if body.AOIID != "" && s.store != nil {
		if err := s.store.SaveReport(r.Context(), body.AOIID, report); err != nil {
			return fmt.Errorf("persist report: %w", err)
		}
	}

	writeJSON(w, http.StatusOK, report)
	return nil
}

type createAOIRequest struct {
	Name     string          `json:"name"`
	Geometry domain.Geometry `json:"geometry"`
}

// POST /v1/aois
func (s *Server) handleCreateAOI(w http.ResponseWriter, r *http.Request) error {
	var body createAOIRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	if body.Name == "" {
		return fmt.Errorf("%w: name is required", errBadRequest)
	}
	if err := body.Geometry.Validate(); err != nil {
		return err
	}

	aoi := domain.AOI{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Geometry:  body.Geometry,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAOI(r.Context(), aoi); err != nil {
		return fmt.Errorf("create aoi: %w", err)
	}

	writeJSON(w, http.StatusCreated, aoi)
	return nil
}

// GET /v1/aois
func (s *Server) handleListAOIs(w http.ResponseWriter, r *http.Request) error {
	aois, err := s.store.ListAOIs(r.Context())
	if err != nil {
		return fmt.Errorf("list aois: %w", err)
	}
	if aois == nil {
		aois = []domain.AOI{}
	}
	writeJSON(w, http.StatusOK, aois)
	return nil
}

// GET /v1/aois/{id}
func (s *Server) handleGetAOI(w http.ResponseWriter, r *http.Request) error {
	aoi, err := s.store.GetAOI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, aoi)
	return nil
}

// DELETE /v1/aois/{id}
func (s *Server) handleDeleteAOI(w http.ResponseWriter, r *http.Request) error {
	if err := s.store.DeleteAOI(r.Context(), chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type addSamplesRequest struct {
	Samples []domain.DisplacementSample `json:"samples"`
}

// POST /v1/aois/{id}/samples
func (s *Server) handleAddSamples(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	var body addSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	if len(body.Samples) == 0 {
		return fmt.Errorf("%w: no samples provided", errBadRequest)
	}

	// Resolve the AOI first so a missing one reads as 404, not as a
	// foreign key violation.
	if _, err := s.store.GetAOI(r.Context(), id); err != nil {
		return err
	}
	if err := s.store.AddSamples(r.Context(), id, body.Samples); err != nil {
		return fmt.Errorf("add samples: %w", err)
	}

	writeJSON(w, http.StatusCreated, map[string]int{"added": len(body.Samples)})
	return nil
}

// GET /v1/aois/{id}/samples
func (s *Server) handleListSamples(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetAOI(r.Context(), id); err != nil {
		return err
	}

	samples, err := s.store.ListSamples(r.Context(), id)
	if err != nil {
		return fmt.Errorf("list samples: %w", err)
	}
	if samples == nil {
		samples = []domain.DisplacementSample{}
	}
	writeJSON(w, http.StatusOK, samples)
	return nil
}

// GET /v1/aois/{id}/reports?limit=
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetAOI(r.Context(), id); err != nil {
		return err
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultReportLimit
	}

	reports, err := s.store.ListReports(r.Context(), id, limit)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if reports == nil {
		reports = []domain.CompositeReport{}
	}
	writeJSON(w, http.StatusOK, reports)
	return nil
}

// GET /v1/reports/{id}
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) error {
	report, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, report)
	return nil
}
