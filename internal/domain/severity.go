package domain

// Severity is the five-level hazard scale shared by all analyzers.
// The total order is STABLE < LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityStable   Severity = "STABLE"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRanks fixes the total order used for aggregation and alerting.
var severityRanks = map[Severity]int{
	SeverityStable:   0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the severity's position in the total order, or -1 for an
// unrecognized value.
func (s Severity) Rank() int {
	r, ok := severityRanks[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is one of the five known levels.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// maxSeverity returns the greater of two severities by rank.
func maxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// FractionBands holds the inclusive lower bounds that map a composite value
// in [0,1] onto the severity scale. Values below Low are STABLE.
type FractionBands struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultFractionBands mirrors the operational flood tiers: below 0.15
// stable, 0.35 medium, 0.55 high, 0.75 critical. Presentation-tuned; override
// via configuration rather than editing code.
func DefaultFractionBands() FractionBands {
	return FractionBands{Low: 0.15, Medium: 0.35, High: 0.55, Critical: 0.75}
}

// bandFraction maps a composite value onto the severity scale using inclusive
// lower bounds: a value exactly at a boundary lands in the higher band.
func bandFraction(v float64, bands FractionBands) Severity {
	switch {
	case v >= bands.Critical:
		return SeverityCritical
	case v >= bands.High:
		return SeverityHigh
	case v >= bands.Medium:
		return SeverityMedium
	case v >= bands.Low:
		return SeverityLow
	default:
		return SeverityStable
	}
}
