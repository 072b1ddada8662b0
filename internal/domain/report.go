package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category identifies what a risk report is about. Erosion and flood have
// dedicated analyzers; THREAT_* categories come from signature classification.
type Category string

const (
	CategoryErosion Category = "EROSION"
	CategoryFlood   Category = "FLOOD"

	CategoryThreatPollution      Category = "THREAT_POLLUTION"
	CategoryThreatVegetationLoss Category = "THREAT_VEGETATION_LOSS"
	CategoryThreatConstruction   Category = "THREAT_CONSTRUCTION"
	CategoryThreatAlgalBloom     Category = "THREAT_ALGAL_BLOOM"
	CategoryThreatSediment       Category = "THREAT_SEDIMENT"
)

// threatCategories is the closed set of signature-matchable categories.
// New signature instances are data-driven; new categories are code changes.
var threatCategories = map[Category]bool{
	CategoryThreatPollution:      true,
	CategoryThreatVegetationLoss: true,
	CategoryThreatConstruction:   true,
	CategoryThreatAlgalBloom:     true,
	CategoryThreatSediment:       true,
}

// IsThreat reports whether c is a signature-matchable threat category.
func (c Category) IsThreat() bool { return threatCategories[c] }

// ThreatCategories lists the known threat categories for loaders and tools.
func ThreatCategories() []Category {
	return []Category{
		CategoryThreatPollution,
		CategoryThreatVegetationLoss,
		CategoryThreatConstruction,
		CategoryThreatAlgalBloom,
		CategoryThreatSediment,
	}
}

// RiskReport is the verdict of a single analyzer: one category, one severity,
// one bounded score. Reports are immutable once emitted.
type RiskReport struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Category        Category           `json:"category"`
	Severity        Severity           `json:"severity"`
	Score           float64            `json:"score"`
	Confidence      float64            `json:"confidence"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`

	// TimeToImpact is a categorical band (flood reports only), never a
	// precise forecast.
	TimeToImpact string `json:"time_to_impact,omitempty"`

	// FloodRiskHint is a qualitative flood hint (erosion reports only).
	FloodRiskHint Severity `json:"flood_risk_hint,omitempty"`

	// Degraded marks that fallback feature values fed this report.
	Degraded bool `json:"degraded,omitempty"`
}

// SkippedAnalysis records an analyzer that could not run and why, so a
// composite never silently drops a failure.
type SkippedAnalysis struct {
	Analyzer string `json:"analyzer"`
	Reason   string `json:"reason"`
}

// CompositeReport bundles the per-analyzer reports of one assessment.
// Scores stay per-category: erosion, flood, and threat severities are not
// commensurable, so they are never merged into one number.
type CompositeReport struct {
	ID              string            `json:"id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	GeometryKind    GeometryKind      `json:"geometry_kind"`
	Reports         []RiskReport      `json:"reports"`
	Skipped         []SkippedAnalysis `json:"skipped,omitempty"`
	HighestSeverity Severity          `json:"highest_severity"`

	// AlertEligible flags the composite for the external notification
	// boundary (highest severity at HIGH or above). The engine never sends
	// notifications itself.
	AlertEligible bool `json:"alert_eligible"`

	// Degraded is set when any sub-report used fallback feature values.
	Degraded bool `json:"degraded,omitempty"`
}

// Aggregate merges analyzer outputs into a composite report. It is a
// read-only bookkeeping step: sub-reports are not mutated or re-scored.
// An empty report set aggregates to STABLE.
func Aggregate(geometry Geometry, reports []RiskReport, skipped []SkippedAnalysis) CompositeReport {
	now := clock.Now().UTC()

	highest := SeverityStable
	degraded := false
	for _, r := range reports {
		highest = maxSeverity(highest, r.Severity)
		if r.Degraded {
			degraded = true
		}
	}

	return CompositeReport{
		ID:              compositeID(geometry, now),
		GeneratedAt:     now,
		GeometryKind:    geometry.Kind(),
		Reports:         reports,
		Skipped:         skipped,
		HighestSeverity: highest,
		AlertEligible:   highest.Rank() >= SeverityHigh.Rank(),
		Degraded:        degraded,
	}
}

// compositeID derives a stable, collision-resistant identifier from the
// geometry hash and generation timestamp. A uuid nonce keeps two identical
// requests in the same instant distinguishable for audit trails.
func compositeID(geometry Geometry, at time.Time) string {
	input := strings.Join([]string{geometry.canonical(), at.Format(time.RFC3339Nano), uuid.NewString()}, "|")
	hash := sha256.Sum256([]byte(input))
	return "cra-" + hex.EncodeToString(hash[:8])
}

// reportID produces a deterministic per-analyzer report ID from the category,
// timestamp, and a short discriminator. With a frozen clock the same inputs
// always produce the same ID, which keeps classification output reproducible.
func reportID(category Category, at time.Time, discriminator string) string {
	input := fmt.Sprintf("%s|%s|%s", category, at.Format(time.RFC3339Nano), discriminator)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	return strings.ToLower(string(category)) + "-" + short
}
