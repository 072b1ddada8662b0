package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFeatureRecord() FeatureRecord {
	r := NewFeatureRecord()
	r.SetScalar(FeatureElevation, 2.0, FieldFromProvider)
	r.SetScalar(FeaturePrecipitation, 30.0, FieldFromProvider)
	r.SetScalar(FeatureTide, 1.2, FieldFromProvider)
	r.SetScalar(FeatureHistoricalMean, 0.4, FieldFromProvider)
	return r
}

func TestAnalyzeFlood(t *testing.T) {
	fixedTime := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	location := PointGeometry(21.6, 87.5)
	params := DefaultFloodParams()

	t.Run("full feature set", func(t *testing.T) {
		report, err := AnalyzeFlood(location, fullFeatureRecord(), params)

		require.NoError(t, err)
		assert.Equal(t, CategoryFlood, report.Category)
		// deficit 0.8, precip 0.6, tide excess 0.8/1.5; weighted 0.66
		assert.InDelta(t, 66.0, report.Score, 1e-9)
		assert.Equal(t, SeverityHigh, report.Severity)
		assert.Equal(t, "12-48 hours", report.TimeToImpact)
		assert.InDelta(t, 0.9, report.Confidence, 1e-9)
		assert.InDelta(t, 0.8, report.Metrics["elevation_deficit"], 1e-9)
		assert.InDelta(t, 0.6, report.Metrics["precipitation_anomaly"], 1e-9)
		assert.InDelta(t, 0.792, report.Metrics["water_level"], 1e-9)
		assert.InDelta(t, 0.34, report.Metrics["drainage_capacity"], 1e-9)
		assert.False(t, report.Degraded)
		assert.Equal(t, fixedTime, report.Timestamp)
		assert.Len(t, report.Recommendations, 5)
	})

	t.Run("storm surge over low ground", func(t *testing.T) {
		r := NewFeatureRecord()
		r.SetScalar(FeatureElevation, 0.5, FieldFromProvider)
		r.SetScalar(FeaturePrecipitation, 120.0, FieldFromProvider)
		r.SetScalar(FeatureTide, 2.2, FieldFromProvider)
		r.SetScalar(FeatureHistoricalMean, 0.3, FieldFromProvider)

		report, err := AnalyzeFlood(location, r, params)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.Severity.Rank(), SeverityHigh.Rank())
		assert.Contains(t, []string{"0-12 hours", "12-48 hours"}, report.TimeToImpact)
	})

	t.Run("elevation only", func(t *testing.T) {
		r := NewFeatureRecord()
		r.SetScalar(FeatureElevation, 2.0, FieldFromProvider)

		report, err := AnalyzeFlood(location, r, params)

		require.NoError(t, err)
		// three optional inputs absent: 0.9 - 3*0.15
		assert.InDelta(t, 0.45, report.Confidence, 1e-9)
		assert.InDelta(t, 32.0, report.Score, 1e-9)
		assert.Equal(t, 0.0, report.Metrics["precipitation_anomaly"])
		assert.Equal(t, 0.0, report.Metrics["tide_excess"])
	})

	t.Run("tide without historical mean", func(t *testing.T) {
		r := fullFeatureRecord()
		r.Sources[FeatureHistoricalMean] = FieldAbsent

		report, err := AnalyzeFlood(location, r, params)

		require.NoError(t, err)
		assert.Equal(t, 0.0, report.Metrics["tide_excess"])
		assert.InDelta(t, 0.75, report.Confidence, 1e-9)
	})

	t.Run("historical mean without tide", func(t *testing.T) {
		r := fullFeatureRecord()
		r.Sources[FeatureTide] = FieldAbsent

		report, err := AnalyzeFlood(location, r, params)

		require.NoError(t, err)
		assert.Equal(t, 0.0, report.Metrics["tide_excess"])
		assert.InDelta(t, 0.75, report.Confidence, 1e-9)
	})

	t.Run("degraded record scales confidence", func(t *testing.T) {
		r := fullFeatureRecord()
		r.SetScalar(FeaturePrecipitation, 30.0, FieldFromFallback)

		report, err := AnalyzeFlood(location, r, params)

		require.NoError(t, err)
		assert.True(t, report.Degraded)
		assert.InDelta(t, 0.72, report.Confidence, 1e-9) // 0.9 * 0.8
	})

	t.Run("confidence never drops below the floor", func(t *testing.T) {
		harsh := params
		harsh.MissingFeaturePenalty = 0.3

		r := NewFeatureRecord()
		r.SetScalar(FeatureElevation, 2.0, FieldFromFallback)

		report, err := AnalyzeFlood(location, r, harsh)

		require.NoError(t, err)
		assert.InDelta(t, 0.3, report.Confidence, 1e-9)
	})

	t.Run("missing elevation proxy", func(t *testing.T) {
		r := NewFeatureRecord()
		r.SetScalar(FeaturePrecipitation, 30.0, FieldFromProvider)

		_, err := AnalyzeFlood(location, r, params)
		require.ErrorIs(t, err, ErrFeatureUnavailable)
	})

	t.Run("path geometry rejected", func(t *testing.T) {
		_, err := AnalyzeFlood(testPath(), fullFeatureRecord(), params)
		require.ErrorIs(t, err, ErrInvalidGeometry)
	})
}

// TestFloodScoreBounds feeds extreme inputs through the analyzer and checks
// that clamping keeps score and confidence in range no matter what.
func TestFloodScoreBounds(t *testing.T) {
	location := PointGeometry(21.6, 87.5)
	params := DefaultFloodParams()
	extremes := []float64{-1e9, -1, 0, 0.5, 1, 1e9}

	for _, elevation := range extremes {
		for _, precip := range extremes {
			for _, tide := range extremes {
				name := fmt.Sprintf("elev=%g precip=%g tide=%g", elevation, precip, tide)
				t.Run(name, func(t *testing.T) {
					r := NewFeatureRecord()
					r.SetScalar(FeatureElevation, elevation, FieldFromProvider)
					r.SetScalar(FeaturePrecipitation, precip, FieldFromProvider)
					r.SetScalar(FeatureTide, tide, FieldFromProvider)
					r.SetScalar(FeatureHistoricalMean, 0.4, FieldFromProvider)

					report, err := AnalyzeFlood(location, r, params)

					require.NoError(t, err)
					assert.GreaterOrEqual(t, report.Score, 0.0)
					assert.LessOrEqual(t, report.Score, 100.0)
					assert.GreaterOrEqual(t, report.Confidence, 0.3)
					assert.LessOrEqual(t, report.Confidence, 0.9)
					assert.True(t, report.Severity.Valid())
				})
			}
		}
	}
}

func TestFloodConfidence(t *testing.T) {
	params := DefaultFloodParams()

	tests := []struct {
		name     string
		missing  int
		degraded bool
		expected float64
	}{
		{"complete", 0, false, 0.9},
		{"one missing", 1, false, 0.75},
		{"two missing", 2, false, 0.6},
		{"all optional missing", 3, false, 0.45},
		{"complete but degraded", 0, true, 0.72},
		{"all missing and degraded", 3, true, 0.36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, floodConfidence(tt.missing, tt.degraded, params), 1e-9)
		})
	}
}
