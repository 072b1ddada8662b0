package domain

import (
	"fmt"
	"math"
	"sort"
)

// ThreatSignature is a named reference pattern matched against imagery
// embeddings. Signatures are configuration data: loaded once at process
// start, immutable thereafter.
type ThreatSignature struct {
	Category           Category  `json:"category"`
	Centroid           []float32 `json:"centroid"`
	BaseSeverityWeight float64   `json:"base_severity_weight"`
}

// SignatureBank is the process-wide, read-only set of threat signatures.
// It is safe for unlimited concurrent readers and never mutated after load.
type SignatureBank struct {
	dim        int
	signatures []ThreatSignature
}

// NewSignatureBank validates and freezes a set of signatures: at least one
// signature, consistent centroid dimensionality, known threat categories,
// and positive severity weights. Declaration order is preserved and used as
// the tie-break when classification probabilities are equal.
func NewSignatureBank(signatures []ThreatSignature) (*SignatureBank, error) {
	if len(signatures) == 0 {
		return nil, fmt.Errorf("signature bank is empty")
	}
	dim := len(signatures[0].Centroid)
	if dim == 0 {
		return nil, fmt.Errorf("signature %q has an empty centroid", signatures[0].Category)
	}
	for _, sig := range signatures {
		if !sig.Category.IsThreat() {
			return nil, fmt.Errorf("unknown threat category %q", sig.Category)
		}
		if len(sig.Centroid) != dim {
			return nil, fmt.Errorf("%w: signature %q has dimension %d, bank uses %d",
				ErrDimensionMismatch, sig.Category, len(sig.Centroid), dim)
		}
		if sig.BaseSeverityWeight <= 0 {
			return nil, fmt.Errorf("signature %q has non-positive severity weight %g", sig.Category, sig.BaseSeverityWeight)
		}
	}
	bank := &SignatureBank{dim: dim, signatures: make([]ThreatSignature, len(signatures))}
	copy(bank.signatures, signatures)
	return bank, nil
}

// Dimension returns the centroid vector length every classification input
// must match.
func (b *SignatureBank) Dimension() int { return b.dim }

// Size returns the number of signatures in the bank.
func (b *SignatureBank) Size() int { return len(b.signatures) }

// Categories lists the signature categories in declaration order.
func (b *SignatureBank) Categories() []Category {
	out := make([]Category, len(b.signatures))
	for i, sig := range b.signatures {
		out[i] = sig.Category
	}
	return out
}

// ClassifyThreats scores an embedding against every signature in the bank
// and emits one report per signature whose probability meets the threshold.
//
// Similarity is cosine similarity squashed onto [0,1] (similarity 1.0 maps
// to probability 1.0, anything at or below 0 maps to 0). The result is a
// bounded, orderable score, not a calibrated probability. Reports are sorted
// by descending probability with bank declaration order breaking ties.
// An empty result is a valid outcome, not an error. The classification is
// deterministic: the same embedding and bank always produce the same ordered
// reports.
func ClassifyThreats(embedding []float32, bank *SignatureBank, threshold float64, bands FractionBands) ([]RiskReport, error) {
	if len(embedding) != bank.dim {
		return nil, fmt.Errorf("%w: embedding has dimension %d, signature bank uses %d",
			ErrDimensionMismatch, len(embedding), bank.dim)
	}

	now := clock.Now().UTC()

	var reports []RiskReport
	for _, sig := range bank.signatures {
		probability := clamp01(cosineSimilarity(embedding, sig.Centroid))
		if probability < threshold {
			continue
		}
		weighted := probability * sig.BaseSeverityWeight
		reports = append(reports, RiskReport{
			ID:         reportID(sig.Category, now, fmt.Sprintf("%.6f", probability)),
			Timestamp:  now,
			Category:   sig.Category,
			Severity:   bandFraction(weighted, bands),
			Score:      math.Min(100, weighted*100),
			Confidence: probability,
			Metrics: map[string]float64{
				"probability":    probability,
				"weighted_score": weighted,
			},
			Recommendations: threatRecommendations[sig.Category],
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Confidence > reports[j].Confidence
	})
	return reports, nil
}

// cosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 when either vector has
// zero norm.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
