package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/observability"
)

// Fallbacks holds reference defaults substituted when a provider call fails.
// Tide and embedding have no safe defaults: a fabricated tide level or
// embedding would be worse than an honest absence.
type Fallbacks struct {
	Enabled         bool
	ElevationMeters float64
	PrecipitationMM float64
}

// ResolverOptions tunes provider calls and the feature cache.
type ResolverOptions struct {
	Timeout   time.Duration // per provider call
	Fallbacks Fallbacks
	CacheSize int // 0 disables the cache
	CacheTTL  time.Duration
}

// Resolver fills the feature record an assessment needs, preferring
// request-supplied values, then cached provider results, then live provider
// calls made in parallel. Provider failures degrade the record instead of
// failing the request.
type Resolver struct {
	providers Providers
	fallbacks Fallbacks
	timeout   time.Duration
	cache     *featureCache
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewResolver builds a resolver over the available providers.
func NewResolver(providers Providers, opts ResolverOptions, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	r := &Resolver{
		providers: providers,
		fallbacks: opts.Fallbacks,
		timeout:   opts.Timeout,
		logger:    logger,
		metrics:   metrics,
	}
	if opts.CacheSize > 0 {
		r.cache = newFeatureCache(opts.CacheSize, opts.CacheTTL, clockwork.NewRealClock())
	}
	return r
}

// ResolveFeatures returns the feature record for a request. Fields already
// present in the request are never re-fetched; the rest are resolved from
// cache or providers, with a single attempt per provider and no retries.
func (r *Resolver) ResolveFeatures(ctx context.Context, req AssessmentRequest, analyzers []Analyzer) (domain.FeatureRecord, error) {
	anchor, ok := req.Geometry.Anchor()
	if !ok {
		return domain.FeatureRecord{}, fmt.Errorf("%w: geometry has no anchor coordinate", domain.ErrInvalidGeometry)
	}

	record := domain.NewFeatureRecord()
	if req.Features != nil {
		record = req.Features.Clone()
	}

	needFlood := hasAnalyzer(analyzers, AnalyzerFlood)
	needThreat := hasAnalyzer(analyzers, AnalyzerThreat)

	wantElevation := needFlood && !record.Has(domain.FeatureElevation)
	wantPrecip := needFlood && !record.Has(domain.FeaturePrecipitation)
	wantTide := needFlood && (!record.Has(domain.FeatureTide) || !record.Has(domain.FeatureHistoricalMean))
	wantEmbedding := needThreat && !record.Has(domain.FeatureEmbedding)

	if !wantElevation && !wantPrecip && !wantTide && !wantEmbedding {
		return record, nil
	}

	key := cacheKey(req.Geometry)
	var cached domain.FeatureRecord
	var cacheHit bool
	if r.cache != nil {
		cached, cacheHit = r.cache.get(key)
		result := "miss"
		if cacheHit {
			result = "hit"
		}
		r.metrics.FeatureCache.WithLabelValues(result).Inc()
	}
	if cacheHit {
		if wantElevation && cached.Has(domain.FeatureElevation) {
			record.SetScalar(domain.FeatureElevation, cached.ElevationProxy, cached.Sources[domain.FeatureElevation])
			wantElevation = false
		}
		if wantPrecip && cached.Has(domain.FeaturePrecipitation) {
			record.SetScalar(domain.FeaturePrecipitation, cached.PrecipitationRecent, cached.Sources[domain.FeaturePrecipitation])
			wantPrecip = false
		}
		if wantTide && cached.Has(domain.FeatureTide) && cached.Has(domain.FeatureHistoricalMean) {
			if !record.Has(domain.FeatureTide) {
				record.SetScalar(domain.FeatureTide, cached.TideLevel, cached.Sources[domain.FeatureTide])
			}
			if !record.Has(domain.FeatureHistoricalMean) {
				record.SetScalar(domain.FeatureHistoricalMean, cached.HistoricalMeanWaterLevel, cached.Sources[domain.FeatureHistoricalMean])
			}
			wantTide = false
		}
		if wantEmbedding && cached.Has(domain.FeatureEmbedding) {
			record.SetEmbedding(cached.Embedding, cached.Sources[domain.FeatureEmbedding])
			record.SpectralIndices = cached.SpectralIndices
			wantEmbedding = false
		}
	}

	// fetched collects provider successes for the cache; fallbacks go into
	// the record only, so a transient outage is retried on the next request.
	fetched := domain.NewFeatureRecord()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	if wantElevation && r.providers.Elevation != nil {
		g.Go(func() error {
			elevation, err := r.fetchElevation(gctx, anchor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("elevation provider failed", "lat", anchor.Lat, "lon", anchor.Lon, "error", err)
				if r.fallbacks.Enabled {
					record.SetScalar(domain.FeatureElevation, r.fallbacks.ElevationMeters, domain.FieldFromFallback)
					r.metrics.ProviderFallbacks.WithLabelValues(domain.FeatureElevation).Inc()
				}
				return nil
			}
			record.SetScalar(domain.FeatureElevation, elevation, domain.FieldFromProvider)
			fetched.SetScalar(domain.FeatureElevation, elevation, domain.FieldFromProvider)
			return nil
		})
	}

	if wantPrecip && r.providers.Weather != nil {
		g.Go(func() error {
			obs, err := r.fetchWeather(gctx, anchor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("weather provider failed", "lat", anchor.Lat, "lon", anchor.Lon, "error", err)
				if r.fallbacks.Enabled {
					record.SetScalar(domain.FeaturePrecipitation, r.fallbacks.PrecipitationMM, domain.FieldFromFallback)
					r.metrics.ProviderFallbacks.WithLabelValues(domain.FeaturePrecipitation).Inc()
				}
				return nil
			}
			record.SetScalar(domain.FeaturePrecipitation, obs.Precipitation, domain.FieldFromProvider)
			fetched.SetScalar(domain.FeaturePrecipitation, obs.Precipitation, domain.FieldFromProvider)
			return nil
		})
	}

	if wantTide && r.providers.Tide != nil {
		g.Go(func() error {
			reading, err := r.fetchWaterLevel(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("tide provider failed", "error", err)
				return nil
			}
			if !record.Has(domain.FeatureTide) {
				record.SetScalar(domain.FeatureTide, reading.TideLevel, domain.FieldFromProvider)
			}
			if !record.Has(domain.FeatureHistoricalMean) {
				record.SetScalar(domain.FeatureHistoricalMean, reading.HistoricalMeanWaterLevel, domain.FieldFromProvider)
			}
			fetched.SetScalar(domain.FeatureTide, reading.TideLevel, domain.FieldFromProvider)
			fetched.SetScalar(domain.FeatureHistoricalMean, reading.HistoricalMeanWaterLevel, domain.FieldFromProvider)
			return nil
		})
	}

	if wantEmbedding && r.providers.Embedder != nil {
		g.Go(func() error {
			result, err := r.fetchEmbedding(gctx, req.Geometry)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("embedding provider failed", "error", err)
				return nil
			}
			record.SetEmbedding(result.Embedding, domain.FieldFromProvider)
			record.SpectralIndices = result.SpectralIndices
			fetched.SetEmbedding(result.Embedding, domain.FieldFromProvider)
			fetched.SpectralIndices = result.SpectralIndices
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return record, err
	}

	if r.cache != nil && anyResolved(fetched) {
		if cacheHit {
			fetched = mergeRecords(cached, fetched)
		}
		r.cache.put(key, fetched)
	}

	return record, nil
}

func (r *Resolver) fetchElevation(ctx context.Context, p domain.Point) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	elevation, err := r.providers.Elevation.Elevation(ctx, p.Lat, p.Lon)
	r.observeProvider("elevation", start, err)
	return elevation, err
}

func (r *Resolver) fetchWeather(ctx context.Context, p domain.Point) (WeatherObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	obs, err := r.providers.Weather.Current(ctx, p.Lat, p.Lon)
	r.observeProvider("weather", start, err)
	return obs, err
}

func (r *Resolver) fetchWaterLevel(ctx context.Context) (WaterLevelReading, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reading, err := r.providers.Tide.WaterLevel(ctx)
	r.observeProvider("tide", start, err)
	return reading, err
}

func (r *Resolver) fetchEmbedding(ctx context.Context, g domain.Geometry) (EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.providers.Embedder.Embed(ctx, g)
	r.observeProvider("embedding", start, err)
	return result, err
}

func (r *Resolver) observeProvider(provider string, start time.Time, err error) {
	r.metrics.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
}

// cacheKey renders the geometry's coordinates rounded to 4 decimal places
// (roughly 11 m), so nearby requests share cached provider results.
func cacheKey(g domain.Geometry) string {
	switch g.Kind() {
	case domain.GeometryPoint:
		return fmt.Sprintf("point:%.4f,%.4f", g.Point.Lat, g.Point.Lon)
	case domain.GeometryPath:
		parts := make([]string, len(g.Path))
		for i, p := range g.Path {
			parts[i] = fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
		}
		return "path:" + strings.Join(parts, ";")
	default:
		return ""
	}
}

func anyResolved(record domain.FeatureRecord) bool {
	for _, field := range []string{
		domain.FeatureElevation,
		domain.FeaturePrecipitation,
		domain.FeatureTide,
		domain.FeatureHistoricalMean,
		domain.FeatureEmbedding,
	} {
		if record.Has(field) {
			return true
		}
	}
	return false
}

// mergeRecords overlays fresh provider results onto an older cached record,
// keeping older fields the fresh fetch did not touch.
func mergeRecords(old, fresh domain.FeatureRecord) domain.FeatureRecord {
	merged := old.Clone()
	if fresh.Has(domain.FeatureElevation) {
		merged.SetScalar(domain.FeatureElevation, fresh.ElevationProxy, fresh.Sources[domain.FeatureElevation])
	}
	if fresh.Has(domain.FeaturePrecipitation) {
		merged.SetScalar(domain.FeaturePrecipitation, fresh.PrecipitationRecent, fresh.Sources[domain.FeaturePrecipitation])
	}
	if fresh.Has(domain.FeatureTide) {
		merged.SetScalar(domain.FeatureTide, fresh.TideLevel, fresh.Sources[domain.FeatureTide])
	}
	if fresh.Has(domain.FeatureHistoricalMean) {
		merged.SetScalar(domain.FeatureHistoricalMean, fresh.HistoricalMeanWaterLevel, fresh.Sources[domain.FeatureHistoricalMean])
	}
	if fresh.Has(domain.FeatureEmbedding) {
		merged.SetEmbedding(fresh.Embedding, fresh.Sources[domain.FeatureEmbedding])
		merged.SpectralIndices = fresh.SpectralIndices
	}
	return merged
}

func hasAnalyzer(analyzers []Analyzer, a Analyzer) bool {
	for _, x := range analyzers {
		if x == a {
			return true
		}
	}
	return false
}
