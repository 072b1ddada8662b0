package engine

import (
	"context"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

// WeatherObservation is the current-conditions snapshot used to derive the
// recent precipitation feature.
type WeatherObservation struct {
	Temperature   float64
	Precipitation float64
	WindSpeed     float64
	WindDirection float64
	Pressure      float64
}

// WeatherProvider supplies current weather at a coordinate.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (WeatherObservation, error)
}

// ElevationProvider supplies terrain elevation in meters at a coordinate.
type ElevationProvider interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// WaterLevelReading pairs the latest observed tide level with the station's
// historical mean, both in meters relative to the station datum.
type WaterLevelReading struct {
	TideLevel                float64
	HistoricalMeanWaterLevel float64
}

// TideProvider supplies the latest water level for the configured station.
type TideProvider interface {
	WaterLevel(ctx context.Context) (WaterLevelReading, error)
}

// EmbeddingResult is an imagery embedding plus acquisition metadata.
type EmbeddingResult struct {
	Embedding       []float32
	AcquisitionAge  time.Duration
	CloudCoverage   float64
	SpectralIndices map[string]float64
}

// EmbeddingProvider supplies an imagery embedding for an area of interest.
type EmbeddingProvider interface {
	Embed(ctx context.Context, geometry domain.Geometry) (EmbeddingResult, error)
}

// Providers bundles the feature sources available to the resolver. Any entry
// may be nil; the corresponding fields are then resolved from the request,
// a fallback default, or left absent.
type Providers struct {
	Weather   WeatherProvider
	Elevation ElevationProvider
	Tide      TideProvider
	Embedder  EmbeddingProvider
}
