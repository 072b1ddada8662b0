package domain

import "errors"

// Sentinel errors for the analyzer contracts. Callers match with errors.Is;
// call sites wrap these with %w to attach detail.
var (
	// ErrInvalidGeometry rejects malformed or insufficient geometry before
	// any computation runs.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrFeatureUnavailable means a feature mandatory for the requested
	// analyzer is missing and no fallback applies. It fails that analyzer
	// only, never the whole assessment.
	ErrFeatureUnavailable = errors.New("feature unavailable")

	// ErrDimensionMismatch means an embedding's length does not match the
	// signature bank dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
