package domain

// FieldSource records how a feature field was obtained, mirroring the
// assembly path so downstream consumers can tell fresh data from fallbacks.
type FieldSource string

const (
	FieldFromRequest  FieldSource = "request"
	FieldFromProvider FieldSource = "provider"
	FieldFromFallback FieldSource = "fallback"
	FieldAbsent       FieldSource = "absent"
)

// Canonical feature field names shared by the resolver and the analyzers.
const (
	FeatureElevation      = "elevation_proxy"
	FeaturePrecipitation  = "precipitation_recent"
	FeatureTide           = "tide_level"
	FeatureHistoricalMean = "historical_mean_water_level"
	FeatureEmbedding      = "embedding"
)

// FeatureRecord is the canonical bag of sensed and derived features consumed
// by the analyzers. It is constructed per assessment and never persisted by
// the engine. Not every field is required by every analyzer; a missing
// mandatory field fails that analyzer only.
type FeatureRecord struct {
	ElevationProxy           float64            `json:"elevation_proxy"`
	PrecipitationRecent      float64            `json:"precipitation_recent"`
	TideLevel                float64            `json:"tide_level"`
	HistoricalMeanWaterLevel float64            `json:"historical_mean_water_level"`
	Embedding                []float32          `json:"embedding,omitempty"`
	SpectralIndices          map[string]float64 `json:"spectral_indices,omitempty"`

	// Degraded is set when any field was filled from a fallback default
	// instead of a live provider. It is a flag, not an error: degraded
	// assessments complete with reduced confidence.
	Degraded bool `json:"degraded,omitempty"`

	// Sources maps field names to how each value was obtained.
	Sources map[string]FieldSource `json:"sources,omitempty"`
}

// NewFeatureRecord returns an empty record with every known field marked absent.
func NewFeatureRecord() FeatureRecord {
	return FeatureRecord{
		Sources: map[string]FieldSource{
			FeatureElevation:      FieldAbsent,
			FeaturePrecipitation:  FieldAbsent,
			FeatureTide:           FieldAbsent,
			FeatureHistoricalMean: FieldAbsent,
			FeatureEmbedding:      FieldAbsent,
		},
	}
}

// Has reports whether the named field carries a usable value, whatever its source.
func (f FeatureRecord) Has(field string) bool {
	src, ok := f.Sources[field]
	return ok && src != FieldAbsent && src != ""
}

// SetScalar stores a scalar feature value and its source.
func (f *FeatureRecord) SetScalar(field string, value float64, source FieldSource) {
	if f.Sources == nil {
		f.Sources = make(map[string]FieldSource)
	}
	switch field {
	case FeatureElevation:
		f.ElevationProxy = value
	case FeaturePrecipitation:
		f.PrecipitationRecent = value
	case FeatureTide:
		f.TideLevel = value
	case FeatureHistoricalMean:
		f.HistoricalMeanWaterLevel = value
	default:
		return
	}
	f.Sources[field] = source
	if source == FieldFromFallback {
		f.Degraded = true
	}
}

// Clone returns a deep copy safe to mutate independently of the original.
func (f FeatureRecord) Clone() FeatureRecord {
	out := f
	if f.Sources != nil {
		out.Sources = make(map[string]FieldSource, len(f.Sources))
		for k, v := range f.Sources {
			out.Sources[k] = v
		}
	}
	if f.Embedding != nil {
		out.Embedding = append([]float32(nil), f.Embedding...)
	}
	if f.SpectralIndices != nil {
		out.SpectralIndices = make(map[string]float64, len(f.SpectralIndices))
		for k, v := range f.SpectralIndices {
			out.SpectralIndices[k] = v
		}
	}
	return out
}

// SetEmbedding stores the embedding vector and its source.
func (f *FeatureRecord) SetEmbedding(vec []float32, source FieldSource) {
	if f.Sources == nil {
		f.Sources = make(map[string]FieldSource)
	}
	f.Embedding = vec
	f.Sources[FeatureEmbedding] = source
	if source == FieldFromFallback {
		f.Degraded = true
	}
}
