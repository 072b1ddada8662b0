package domain

import (
	"fmt"
	"math"
	"time"
)

// DisplacementSample is one observation of shoreline movement relative to a
// baseline. Positive offsets mean landward retreat, negative mean accretion.
type DisplacementSample struct {
	TimestampOrdinal int64   `json:"timestamp_ordinal"`
	OffsetMeters     float64 `json:"offset_meters"`
}

// ErosionParams holds the rate thresholds, in meters per ordinal unit, that
// band an erosion rate onto the severity scale. Each threshold is the
// inclusive lower bound of its tier; any positive rate below MediumRate is LOW.
type ErosionParams struct {
	MediumRate   float64
	HighRate     float64
	CriticalRate float64
}

// DefaultErosionParams returns the operational defaults (0.04 / 0.08 / 0.15).
// Like all banding constants these are presentation-tuned, not calibrated
// science; override via configuration.
func DefaultErosionParams() ErosionParams {
	return ErosionParams{MediumRate: 0.04, HighRate: 0.08, CriticalRate: 0.15}
}

// insufficientHistoryConfidence caps confidence at 0.3 when the sample
// history cannot support a rate estimate. Sparse history is common and must
// not break the pipeline, so the verdict is STABLE at low confidence rather
// than an error.
func insufficientHistoryConfidence(sampleCount int) float64 {
	return math.Min(0.3, 0.1+0.1*float64(sampleCount))
}

// AnalyzeErosion computes a shoreline erosion verdict for a path geometry
// from ordered displacement samples.
//
// The erosion rate is the net offset change divided by the elapsed ordinal
// span. Fewer than two samples, or a non-positive span, yields a STABLE
// report with confidence capped at 0.3. Severity tiers use inclusive lower
// bounds: a rate exactly at a threshold lands in the higher tier.
func AnalyzeErosion(path Geometry, samples []DisplacementSample, params ErosionParams) (RiskReport, error) {
	if err := path.Validate(); err != nil {
		return RiskReport{}, err
	}
	if path.Kind() != GeometryPath {
		return RiskReport{}, fmt.Errorf("%w: erosion analysis needs a shoreline path, got point", ErrInvalidGeometry)
	}

	now := clock.Now().UTC()

	if len(samples) < 2 {
		return erosionReport(now, 0, 0, len(samples), 0, insufficientHistoryConfidence(len(samples)), params), nil
	}

	first, last := samples[0], samples[len(samples)-1]
	span := last.TimestampOrdinal - first.TimestampOrdinal
	if span <= 0 {
		return erosionReport(now, 0, 0, len(samples), span, insufficientHistoryConfidence(len(samples)), params), nil
	}

	change := last.OffsetMeters - first.OffsetMeters
	rate := change / float64(span)
	confidence := math.Min(0.9, 0.5+0.05*float64(len(samples)))

	return erosionReport(now, rate, change, len(samples), span, confidence, params), nil
}

func erosionReport(now time.Time, rate, change float64, sampleCount int, span int64, confidence float64, params ErosionParams) RiskReport {
	severity := bandErosionRate(rate, params)
	return RiskReport{
		ID:         reportID(CategoryErosion, now, fmt.Sprintf("%.6f|%d", rate, sampleCount)),
		Timestamp:  now,
		Category:   CategoryErosion,
		Severity:   severity,
		Score:      erosionScore(rate, params),
		Confidence: confidence,
		Metrics: map[string]float64{
			"erosion_rate":     rate,
			"shoreline_change": change,
			"sample_count":     float64(sampleCount),
			"ordinal_span":     float64(span),
		},
		Recommendations: erosionRecommendations[severity],
		FloodRiskHint:   floodRiskHint(severity),
	}
}

// bandErosionRate maps a rate onto the severity scale. Non-positive rates
// (stable or accreting shorelines) are STABLE.
func bandErosionRate(rate float64, params ErosionParams) Severity {
	switch {
	case rate <= 0:
		return SeverityStable
	case rate >= params.CriticalRate:
		return SeverityCritical
	case rate >= params.HighRate:
		return SeverityHigh
	case rate >= params.MediumRate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// erosionScore projects the rate onto [0,100] against the critical threshold.
func erosionScore(rate float64, params ErosionParams) float64 {
	if rate <= 0 || params.CriticalRate <= 0 {
		return 0
	}
	return math.Min(1, rate/params.CriticalRate) * 100
}

// floodRiskHint coarsens erosion severity into a qualitative flood-risk hint.
// Shoreline retreat is a leading indicator for inundation, but this is a hint
// field only and is never merged with the flood analyzer's own score.
func floodRiskHint(s Severity) Severity {
	switch s {
	case SeverityHigh, SeverityCritical:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
