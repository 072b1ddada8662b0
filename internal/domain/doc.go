// Package domain models coastal hazard risk assessment: shoreline erosion,
// flood risk, and signature-matched threat classification.
//
// # Inputs
//
// Assessments start from a geometry (a WGS-84 point or an ordered shoreline
// path of at least two vertices) plus a FeatureRecord, the canonical bag of
// sensed and derived features: elevation proxy, recent precipitation, tide
// level, historical mean water level, an imagery embedding vector, and
// optional spectral indices (NDVI, NDWI). Features arrive from the request
// or from external providers; fields filled from fallback defaults mark the
// record Degraded. Shoreline history arrives as ordered DisplacementSamples
// where positive offsets mean landward retreat and negative mean accretion.
//
// # Severity scale
//
// All analyzers share one five-level scale with the fixed total order
//
//	STABLE < LOW < MEDIUM < HIGH < CRITICAL
//
// Banding uses inclusive lower bounds throughout: a value exactly at a tier
// threshold lands in the higher tier.
//
//	Erosion rate (m/ordinal unit): ≤0 STABLE | <0.04 LOW | <0.08 MEDIUM | <0.15 HIGH | ≥0.15 CRITICAL
//	Flood/threat composite [0,1]:  <0.15 STABLE | <0.35 LOW | <0.55 MEDIUM | <0.75 HIGH | ≥0.75 CRITICAL
//
// The thresholds above are the defaults; every one of them is configuration,
// tuned for operational triage rather than derived from validated coastal
// science. Scores are bounded to [0,100] and confidences to [0,1].
//
// # Analyzer independence
//
// Each analyzer is a pure function of its explicit inputs and emits its own
// RiskReport. Scores are never merged across categories: erosion, flood, and
// threat severities are not commensurable. The erosion analyzer's
// FloodRiskHint is a qualitative hint field, not a numeric merge. Aggregation
// computes the maximum severity, records skipped analyzers with their
// reasons, and flags alert eligibility at HIGH or above.
//
// # Insufficient data
//
// Sparse shoreline history (fewer than two samples) produces a STABLE verdict
// with confidence capped at 0.3 rather than an error. Missing optional flood
// inputs reduce confidence by a fixed penalty down to a floor of 0.3, so a
// flood report is always actionable, just less certain. Missing mandatory
// inputs (elevation for flood, embedding for classification) fail only the
// analyzer that needs them.
//
// # ID generation
//
// Composite IDs hash the canonical geometry, the generation timestamp, and a
// uuid nonce, so repeated identical requests in the same instant remain
// distinguishable for audit trails. Per-analyzer report IDs are deterministic
// given the package clock, which tests freeze via [SetClock].
package domain
