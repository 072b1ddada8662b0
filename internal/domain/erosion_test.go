package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPath() Geometry {
	return PathGeometry(Point{Lat: 21.6, Lon: 87.5}, Point{Lat: 21.7, Lon: 87.6})
}

// samplesForRate builds a two-sample history that yields the given rate over
// a span of 10 ordinal units.
func samplesForRate(rate float64) []DisplacementSample {
	return []DisplacementSample{
		{TimestampOrdinal: 0, OffsetMeters: 0},
		{TimestampOrdinal: 10, OffsetMeters: rate * 10},
	}
}

func TestAnalyzeErosion(t *testing.T) {
	fixedTime := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	params := DefaultErosionParams()

	t.Run("retreating shoreline", func(t *testing.T) {
		samples := []DisplacementSample{
			{TimestampOrdinal: 0, OffsetMeters: 1.0},
			{TimestampOrdinal: 5, OffsetMeters: 1.2},
			{TimestampOrdinal: 10, OffsetMeters: 1.5},
		}
		report, err := AnalyzeErosion(testPath(), samples, params)

		require.NoError(t, err)
		assert.Equal(t, CategoryErosion, report.Category)
		assert.Equal(t, SeverityMedium, report.Severity) // rate 0.05
		assert.InDelta(t, 0.05, report.Metrics["erosion_rate"], 1e-9)
		assert.InDelta(t, 0.5, report.Metrics["shoreline_change"], 1e-9)
		assert.Equal(t, 3.0, report.Metrics["sample_count"])
		assert.InDelta(t, 0.65, report.Confidence, 1e-9)
		assert.Equal(t, SeverityMedium, report.FloodRiskHint)
		assert.Equal(t, fixedTime, report.Timestamp)
		assert.Len(t, report.Recommendations, 5)
	})

	t.Run("accreting shoreline is stable", func(t *testing.T) {
		report, err := AnalyzeErosion(testPath(), samplesForRate(-0.07), params)

		require.NoError(t, err)
		assert.Equal(t, SeverityStable, report.Severity)
		assert.Equal(t, 0.0, report.Score)
		assert.Equal(t, SeverityLow, report.FloodRiskHint)
	})

	t.Run("no samples", func(t *testing.T) {
		report, err := AnalyzeErosion(testPath(), nil, params)

		require.NoError(t, err)
		assert.Equal(t, SeverityStable, report.Severity)
		assert.LessOrEqual(t, report.Confidence, 0.3)
		assert.Equal(t, 0.0, report.Metrics["erosion_rate"])
	})

	t.Run("single sample", func(t *testing.T) {
		samples := []DisplacementSample{{TimestampOrdinal: 3, OffsetMeters: 4.2}}
		report, err := AnalyzeErosion(testPath(), samples, params)

		require.NoError(t, err)
		assert.Equal(t, SeverityStable, report.Severity)
		assert.LessOrEqual(t, report.Confidence, 0.3)
	})

	t.Run("zero ordinal span", func(t *testing.T) {
		samples := []DisplacementSample{
			{TimestampOrdinal: 7, OffsetMeters: 1.0},
			{TimestampOrdinal: 7, OffsetMeters: 9.0},
		}
		report, err := AnalyzeErosion(testPath(), samples, params)

		require.NoError(t, err)
		assert.Equal(t, SeverityStable, report.Severity)
		assert.LessOrEqual(t, report.Confidence, 0.3)
	})

	t.Run("point geometry rejected", func(t *testing.T) {
		_, err := AnalyzeErosion(PointGeometry(21.6, 87.5), samplesForRate(0.1), params)
		require.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("single vertex path rejected", func(t *testing.T) {
		_, err := AnalyzeErosion(PathGeometry(Point{Lat: 21.6, Lon: 87.5}), samplesForRate(0.1), params)
		require.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("deterministic under a frozen clock", func(t *testing.T) {
		first, err := AnalyzeErosion(testPath(), samplesForRate(0.1), params)
		require.NoError(t, err)
		second, err := AnalyzeErosion(testPath(), samplesForRate(0.1), params)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestBandErosionRate(t *testing.T) {
	params := DefaultErosionParams()

	tests := []struct {
		name     string
		rate     float64
		expected Severity
	}{
		{"negative rate", -0.5, SeverityStable},
		{"zero rate", 0, SeverityStable},
		{"small positive", 0.01, SeverityLow},
		{"just below medium", 0.0399, SeverityLow},
		{"exactly medium threshold", 0.04, SeverityMedium},
		{"between medium and high", 0.06, SeverityMedium},
		{"exactly high threshold", 0.08, SeverityHigh},
		{"between high and critical", 0.12, SeverityHigh},
		{"exactly critical threshold", 0.15, SeverityCritical},
		{"far beyond critical", 3.0, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bandErosionRate(tt.rate, params))
		})
	}
}

// TestErosionBoundaryInclusive pins the tie-break rule: a rate exactly at a
// tier threshold lands in the higher tier.
func TestErosionBoundaryInclusive(t *testing.T) {
	params := ErosionParams{MediumRate: 0.2, HighRate: 0.5, CriticalRate: 1.0}

	// Offsets 0 → 5 over 10 ordinal units: rate exactly 0.5.
	report, err := AnalyzeErosion(testPath(), []DisplacementSample{
		{TimestampOrdinal: 0, OffsetMeters: 0.0},
		{TimestampOrdinal: 10, OffsetMeters: 5.0},
	}, params)

	require.NoError(t, err)
	assert.InDelta(t, 0.5, report.Metrics["erosion_rate"], 1e-9)
	assert.Equal(t, SeverityHigh, report.Severity, "rate at the threshold belongs to the higher tier")
}

// TestErosionMonotonic verifies that increasing the rate never decreases the
// severity tier.
func TestErosionMonotonic(t *testing.T) {
	params := DefaultErosionParams()

	rates := []float64{-0.1, 0, 0.01, 0.03, 0.04, 0.05, 0.08, 0.1, 0.15, 0.4}
	prevRank := -1
	for _, rate := range rates {
		report, err := AnalyzeErosion(testPath(), samplesForRate(rate), params)
		require.NoError(t, err)
		rank := report.Severity.Rank()
		assert.GreaterOrEqual(t, rank, prevRank, "rate %g decreased severity", rate)
		prevRank = rank
	}
}

func TestFloodRiskHint(t *testing.T) {
	tests := []struct {
		severity Severity
		hint     Severity
	}{
		{SeverityStable, SeverityLow},
		{SeverityLow, SeverityLow},
		{SeverityMedium, SeverityMedium},
		{SeverityHigh, SeverityHigh},
		{SeverityCritical, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.hint, floodRiskHint(tt.severity))
		})
	}
}
