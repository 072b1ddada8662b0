package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	fixedTime := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	location := PointGeometry(21.6, 87.5)

	t.Run("highest severity wins", func(t *testing.T) {
		composite := Aggregate(location, []RiskReport{
			{Category: CategoryFlood, Severity: SeverityLow},
			{Category: CategoryThreatPollution, Severity: SeverityCritical},
			{Category: CategoryThreatSediment, Severity: SeverityMedium},
		}, nil)

		assert.Equal(t, SeverityCritical, composite.HighestSeverity)
		assert.True(t, composite.AlertEligible)
		assert.Equal(t, GeometryPoint, composite.GeometryKind)
		assert.Equal(t, fixedTime, composite.GeneratedAt)
		assert.Len(t, composite.Reports, 3)
	})

	t.Run("empty report set is stable", func(t *testing.T) {
		composite := Aggregate(location, nil, nil)

		assert.Equal(t, SeverityStable, composite.HighestSeverity)
		assert.False(t, composite.AlertEligible)
		assert.Empty(t, composite.Reports)
	})

	t.Run("alert eligibility thresholds", func(t *testing.T) {
		tests := []struct {
			severity Severity
			eligible bool
		}{
			{SeverityStable, false},
			{SeverityLow, false},
			{SeverityMedium, false},
			{SeverityHigh, true},
			{SeverityCritical, true},
		}
		for _, tt := range tests {
			composite := Aggregate(location, []RiskReport{{Severity: tt.severity}}, nil)
			assert.Equal(t, tt.eligible, composite.AlertEligible, "severity %s", tt.severity)
		}
	})

	t.Run("skipped analyzers are carried through", func(t *testing.T) {
		skipped := []SkippedAnalysis{{Analyzer: "threat", Reason: "no embedding in request"}}
		composite := Aggregate(location, []RiskReport{{Severity: SeverityLow}}, skipped)

		require.Len(t, composite.Skipped, 1)
		assert.Equal(t, "threat", composite.Skipped[0].Analyzer)
	})

	t.Run("degradation propagates from any sub-report", func(t *testing.T) {
		composite := Aggregate(location, []RiskReport{
			{Severity: SeverityLow},
			{Severity: SeverityMedium, Degraded: true},
		}, nil)

		assert.True(t, composite.Degraded)
	})

	t.Run("same instant yields distinct ids", func(t *testing.T) {
		first := Aggregate(location, nil, nil)
		second := Aggregate(location, nil, nil)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Regexp(t, `^cra-[0-9a-f]{16}$`, first.ID)
	})
}

func TestReportID(t *testing.T) {
	at := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		a := reportID(CategoryFlood, at, "0.660000")
		b := reportID(CategoryFlood, at, "0.660000")
		assert.Equal(t, a, b)
		assert.Regexp(t, `^flood-[0-9a-f]{16}$`, a)
	})

	t.Run("discriminator changes the id", func(t *testing.T) {
		a := reportID(CategoryFlood, at, "0.660000")
		b := reportID(CategoryFlood, at, "0.670000")
		assert.NotEqual(t, a, b)
	})
}

func TestRiskReportJSON(t *testing.T) {
	report := RiskReport{
		ID:         "flood-abc123",
		Timestamp:  time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC),
		Category:   CategoryFlood,
		Severity:   SeverityHigh,
		Score:      66,
		Confidence: 0.9,
		Metrics:    map[string]float64{"water_level": 0.79},
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"category":"FLOOD"`)
	assert.Contains(t, string(data), `"severity":"HIGH"`)
	// Analyzer-specific fields stay out of reports that do not set them.
	assert.NotContains(t, string(data), "time_to_impact")
	assert.NotContains(t, string(data), "flood_risk_hint")
}

func TestThreatCategories(t *testing.T) {
	cats := ThreatCategories()
	assert.Len(t, cats, 5)
	for _, c := range cats {
		assert.True(t, c.IsThreat(), "category %s", c)
	}
	assert.False(t, CategoryErosion.IsThreat())
	assert.False(t, CategoryFlood.IsThreat())
}
