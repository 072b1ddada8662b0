package domain

import (
	"fmt"
	"math"
)

// FloodParams holds the weights, normalization scales, and confidence
// parameters for flood risk scoring. Weights must sum to 1 (validated at
// configuration load).
type FloodParams struct {
	WeightElevation     float64
	WeightPrecipitation float64
	WeightTide          float64

	// Normalization references: ground at or above RefElevationMeters
	// contributes zero elevation deficit; precipitation and tide excess
	// saturate at their scale values.
	RefElevationMeters float64
	PrecipScaleMM      float64
	TideScaleMeters    float64

	ConfidenceBase        float64
	MissingFeaturePenalty float64
	ConfidenceFloor       float64
	DegradedMultiplier    float64

	Bands FractionBands
}

// DefaultFloodParams returns the operational defaults. Override via
// configuration.
func DefaultFloodParams() FloodParams {
	return FloodParams{
		WeightElevation:       0.4,
		WeightPrecipitation:   0.3,
		WeightTide:            0.3,
		RefElevationMeters:    10,
		PrecipScaleMM:         50,
		TideScaleMeters:       1.5,
		ConfidenceBase:        0.9,
		MissingFeaturePenalty: 0.15,
		ConfidenceFloor:       0.3,
		DegradedMultiplier:    0.8,
		Bands:                 DefaultFractionBands(),
	}
}

// Time-to-impact estimates per severity tier. These are categorical bands,
// not forecasts: the inputs cannot support a precise prediction.
var timeToImpact = map[Severity]string{
	SeverityCritical: "0-12 hours",
	SeverityHigh:     "12-48 hours",
	SeverityMedium:   "days",
	SeverityLow:      "no near-term risk",
	SeverityStable:   "no near-term risk",
}

// AnalyzeFlood computes a flood risk verdict for a point location.
//
// The score is a weighted sum of three sub-signals, each clamped to [0,1]
// before weighting so one extreme input cannot push the total out of range:
// elevation deficit (lower ground contributes more), precipitation anomaly,
// and tide excess over the historical mean water level. ElevationProxy is
// mandatory; the other inputs are optional and each absence costs confidence.
// The reported TimeToImpact is a categorical band derived from severity,
// never a precise forecast.
func AnalyzeFlood(location Geometry, features FeatureRecord, params FloodParams) (RiskReport, error) {
	if err := location.Validate(); err != nil {
		return RiskReport{}, err
	}
	if location.Kind() != GeometryPoint {
		return RiskReport{}, fmt.Errorf("%w: flood analysis needs a point location, got path", ErrInvalidGeometry)
	}
	if !features.Has(FeatureElevation) {
		return RiskReport{}, fmt.Errorf("%w: flood analysis requires %s", ErrFeatureUnavailable, FeatureElevation)
	}

	elevationDeficit := 0.0
	if params.RefElevationMeters > 0 {
		elevationDeficit = clamp01((params.RefElevationMeters - features.ElevationProxy) / params.RefElevationMeters)
	}

	var missing int

	precipAnomaly := 0.0
	if features.Has(FeaturePrecipitation) {
		precipAnomaly = clamp01(features.PrecipitationRecent / params.PrecipScaleMM)
	} else {
		missing++
	}

	tideExcess := 0.0
	switch {
	case features.Has(FeatureTide) && features.Has(FeatureHistoricalMean):
		tideExcess = clamp01((features.TideLevel - features.HistoricalMeanWaterLevel) / params.TideScaleMeters)
	case features.Has(FeatureTide):
		// Without a historical mean the excess is unanchored; treat the
		// mean as absent rather than guessing a baseline.
		missing++
	default:
		missing++
		if !features.Has(FeatureHistoricalMean) {
			missing++
		}
	}

	composite := params.WeightElevation*elevationDeficit +
		params.WeightPrecipitation*precipAnomaly +
		params.WeightTide*tideExcess

	severity := bandFraction(composite, params.Bands)
	now := clock.Now().UTC()

	return RiskReport{
		ID:         reportID(CategoryFlood, now, fmt.Sprintf("%.6f", composite)),
		Timestamp:  now,
		Category:   CategoryFlood,
		Severity:   severity,
		Score:      composite * 100,
		Confidence: floodConfidence(missing, features.Degraded, params),
		Metrics: map[string]float64{
			"water_level":           math.Min(1, composite*1.2),
			"drainage_capacity":     math.Max(0.1, 1-composite),
			"elevation_deficit":     elevationDeficit,
			"precipitation_anomaly": precipAnomaly,
			"tide_excess":           tideExcess,
		},
		Recommendations: floodRecommendations[severity],
		TimeToImpact:    timeToImpact[severity],
		Degraded:        features.Degraded,
	}, nil
}

// floodConfidence reflects input completeness: a baseline reduced by a fixed
// penalty per missing optional feature, scaled down further when the record
// is degraded, and floored so a report is always actionable, just less certain.
func floodConfidence(missing int, degraded bool, params FloodParams) float64 {
	c := params.ConfidenceBase - params.MissingFeaturePenalty*float64(missing)
	if degraded {
		c *= params.DegradedMultiplier
	}
	return math.Max(params.ConfidenceFloor, c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
