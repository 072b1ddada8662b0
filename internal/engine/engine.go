// Package engine orchestrates coastal risk assessments: it resolves the
// feature record a request needs, runs the requested analyzers, and
// aggregates their reports. Analyzer failures are scoped: one failing
// analyzer is recorded and skipped, the rest still report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/observability"
)

// Analyzer names one of the risk analyzers an assessment can run.
type Analyzer string

const (
	AnalyzerErosion Analyzer = "erosion"
	AnalyzerFlood   Analyzer = "flood"
	AnalyzerThreat  Analyzer = "threat"
)

// ParseAnalyzer validates an analyzer name from a request or flag.
func ParseAnalyzer(s string) (Analyzer, error) {
	switch Analyzer(s) {
	case AnalyzerErosion, AnalyzerFlood, AnalyzerThreat:
		return Analyzer(s), nil
	default:
		return "", fmt.Errorf("unknown analyzer %q", s)
	}
}

// AssessmentRequest describes one assessment: where, what to run, and any
// caller-supplied history or features. Analyzers left empty selects the
// applicable set for the geometry.
type AssessmentRequest struct {
	AOIID     string
	Geometry  domain.Geometry
	Analyzers []Analyzer
	Samples   []domain.DisplacementSample
	Features  *domain.FeatureRecord
}

// Options carries the analyzer tuning derived from configuration.
type Options struct {
	Erosion         domain.ErosionParams
	Flood           domain.FloodParams
	ThreatThreshold float64
	Bands           domain.FractionBands
}

// Engine runs assessments. It is stateless between calls except for the
// read-only signature bank and the resolver's feature cache, and is safe for
// concurrent use.
type Engine struct {
	resolver *Resolver
	bank     *domain.SignatureBank // nil disables threat classification
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New builds an engine over a resolver and an optional signature bank.
func New(resolver *Resolver, bank *domain.SignatureBank, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		resolver: resolver,
		bank:     bank,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Assess runs the requested analyzers and aggregates their reports.
//
// Only an invalid geometry, or a failure that leaves no analyzer with a
// report, fails the whole call; individual analyzer failures are recorded in
// the composite's Skipped list.
func (e *Engine) Assess(ctx context.Context, req AssessmentRequest) (domain.CompositeReport, error) {
	start := time.Now()
	composite, err := e.assess(ctx, req)
	e.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.metrics.AssessmentsTotal.WithLabelValues(outcome).Inc()
	return composite, err
}

func (e *Engine) assess(ctx context.Context, req AssessmentRequest) (domain.CompositeReport, error) {
	if err := req.Geometry.Validate(); err != nil {
		return domain.CompositeReport{}, err
	}

	analyzers := req.Analyzers
	if len(analyzers) == 0 {
		analyzers = e.applicableAnalyzers(req)
	}

	features, err := e.resolver.ResolveFeatures(ctx, req, analyzers)
	if err != nil {
		return domain.CompositeReport{}, err
	}

	var reports []domain.RiskReport
	var skipped []domain.SkippedAnalysis
	var firstErr error

	for _, analyzer := range analyzers {
		var analyzerReports []domain.RiskReport
		var analyzerErr error

		switch analyzer {
		case AnalyzerErosion:
			report, err := domain.AnalyzeErosion(req.Geometry, req.Samples, e.opts.Erosion)
			if err == nil {
				analyzerReports = []domain.RiskReport{report}
			}
			analyzerErr = err
		case AnalyzerFlood:
			report, err := domain.AnalyzeFlood(req.Geometry, features, e.opts.Flood)
			if err == nil {
				analyzerReports = []domain.RiskReport{report}
			}
			analyzerErr = err
		case AnalyzerThreat:
			analyzerReports, analyzerErr = e.classifyThreats(features)
		default:
			analyzerErr = fmt.Errorf("unknown analyzer %q", analyzer)
		}

		if analyzerErr != nil {
			e.logger.Warn("analyzer skipped", "analyzer", analyzer, "error", analyzerErr)
			e.metrics.AnalyzersSkipped.WithLabelValues(string(analyzer)).Inc()
			skipped = append(skipped, domain.SkippedAnalysis{Analyzer: string(analyzer), Reason: analyzerErr.Error()})
			if firstErr == nil {
				firstErr = analyzerErr
			}
			continue
		}
		reports = append(reports, analyzerReports...)
	}

	// All requested analyzers failing means the caller gets nothing useful;
	// surface the first failure instead of an empty STABLE composite.
	if len(analyzers) > 0 && len(skipped) == len(analyzers) {
		return domain.CompositeReport{}, fmt.Errorf("no analyzer completed: %w", firstErr)
	}

	composite := domain.Aggregate(req.Geometry, reports, skipped)

	e.logger.Info("assessment complete",
		"id", composite.ID,
		"aoi_id", req.AOIID,
		"geometry", composite.GeometryKind,
		"highest_severity", composite.HighestSeverity,
		"reports", len(composite.Reports),
		"skipped", len(composite.Skipped),
		"alert_eligible", composite.AlertEligible,
		"degraded", composite.Degraded,
	)

	return composite, nil
}

// applicableAnalyzers selects the default analyzer set for a request:
// erosion for paths, flood for points, and threat classification whenever an
// embedding is supplied or resolvable.
func (e *Engine) applicableAnalyzers(req AssessmentRequest) []Analyzer {
	var out []Analyzer
	switch req.Geometry.Kind() {
	case domain.GeometryPath:
		out = append(out, AnalyzerErosion)
	case domain.GeometryPoint:
		out = append(out, AnalyzerFlood)
	}
	if e.bank != nil && e.embeddingResolvable(req) {
		out = append(out, AnalyzerThreat)
	}
	return out
}

func (e *Engine) embeddingResolvable(req AssessmentRequest) bool {
	if req.Features != nil && req.Features.Has(domain.FeatureEmbedding) {
		return true
	}
	return e.resolver.providers.Embedder != nil
}

func (e *Engine) classifyThreats(features domain.FeatureRecord) ([]domain.RiskReport, error) {
	if e.bank == nil {
		return nil, fmt.Errorf("%w: no signature bank configured", domain.ErrFeatureUnavailable)
	}
	if !features.Has(domain.FeatureEmbedding) {
		return nil, fmt.Errorf("%w: threat classification requires %s", domain.ErrFeatureUnavailable, domain.FeatureEmbedding)
	}
	reports, err := domain.ClassifyThreats(features.Embedding, e.bank, e.opts.ThreatThreshold, e.opts.Bands)
	if err != nil {
		return nil, err
	}
	// Imagery indices (NDVI, NDWI) ride along on each matched report.
	for i := range reports {
		for k, v := range features.SpectralIndices {
			reports[i].Metrics[k] = v
		}
	}
	return reports, nil
}
