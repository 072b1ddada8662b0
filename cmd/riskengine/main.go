package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/clay"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/httpapi"
	kafkaadapter "github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/kafka"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/noaa"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/openmeteo"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/postgres"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/config"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/monitor"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/observability"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/signatures"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	metrics := observability.NewMetrics()

	// Feature providers (each behind COASTAL_PROVIDERS_*_ENABLED).
	var providers engine.Providers
	if cfg.Providers.OpenMeteo.Enabled {
		providers.Weather = openmeteo.NewForecastClient(cfg.Providers.OpenMeteo.BaseURL, cfg.Providers.OpenMeteo.Timeout, logger)
		providers.Elevation = openmeteo.NewElevationClient(cfg.Providers.OpenMeteo.BaseURL, cfg.Providers.OpenMeteo.Timeout, logger)
		logger.Info("open-meteo providers enabled", "base_url", cfg.Providers.OpenMeteo.BaseURL, "timeout", cfg.Providers.OpenMeteo.Timeout)
	} else {
		logger.Info("open-meteo providers disabled")
	}
	if cfg.Providers.NOAA.Enabled {
		providers.Tide = noaa.NewClient(cfg.Providers.NOAA.BaseURL, cfg.Providers.NOAA.Station, cfg.Providers.NOAA.Timeout, logger)
		logger.Info("noaa tide provider enabled", "station", cfg.Providers.NOAA.Station, "timeout", cfg.Providers.NOAA.Timeout)
	} else {
		logger.Info("noaa tide provider disabled")
	}
	if cfg.Providers.Clay.Enabled {
		providers.Embedder = clay.NewClient(cfg.Providers.Clay.BaseURL, cfg.Providers.Clay.APIKey, cfg.Providers.Clay.Timeout, logger)
		logger.Info("clay embedding provider enabled", "base_url", cfg.Providers.Clay.BaseURL, "timeout", cfg.Providers.Clay.Timeout)
	} else {
		logger.Info("clay embedding provider disabled")
	}

	resolver := engine.NewResolver(providers, engine.ResolverOptions{
		Timeout: cfg.Engine.ProviderTimeout,
		Fallbacks: engine.Fallbacks{
			Enabled:         cfg.Fallbacks.Enabled,
			ElevationMeters: cfg.Fallbacks.ElevationMeters,
			PrecipitationMM: cfg.Fallbacks.PrecipitationMM,
		},
		CacheSize: cfg.Engine.CacheSize,
		CacheTTL:  cfg.Engine.CacheTTL,
	}, logger, metrics)

	var bank *domain.SignatureBank
	if cfg.Threat.BankPath != "" {
		bank, err = signatures.Load(cfg.Threat.BankPath)
		if err != nil {
			logger.Error("failed to load signature bank", "path", cfg.Threat.BankPath, "error", err)
			os.Exit(1)
		}
		if cfg.Threat.Dimension > 0 && bank.Dimension() != cfg.Threat.Dimension {
			logger.Error("signature bank dimension mismatch", "path", cfg.Threat.BankPath, "bank", bank.Dimension(), "configured", cfg.Threat.Dimension)
			os.Exit(1)
		}
		logger.Info("signature bank loaded", "path", cfg.Threat.BankPath, "signatures", bank.Size(), "dimension", bank.Dimension())
	} else {
		logger.Info("threat classification disabled, no signature bank configured")
	}

	eng := engine.New(resolver, bank, engineOptions(cfg), logger, metrics)

	var pg *postgres.Store
	if cfg.Postgres.DSN != "" {
		pg, err = postgres.Open(context.Background(), cfg.Postgres.DSN)
		if err != nil {
			logger.Error("failed to open postgres store", "error", err)
			os.Exit(1)
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure postgres schema", "error", err)
			os.Exit(1)
		}
		logger.Info("postgres store enabled")
	} else {
		logger.Info("postgres store disabled, persistence routes unavailable")
	}

	var publisher *kafkaadapter.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafkaadapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic, logger)
		logger.Info("kafka alert publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.AlertTopic)
	} else {
		logger.Info("kafka alert publisher disabled")
	}

	// Assign concrete adapters to interface variables only when present, so
	// a nil pointer does not arrive as a non-nil interface.
	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		var sink monitor.AlertPublisher
		if publisher != nil {
			sink = publisher
		}
		mon = monitor.New(pg, eng, sink, monitor.Options{
			Interval:        cfg.Monitor.Interval,
			DedupWindow:     cfg.Monitor.DedupWindow,
			Retention:       cfg.Monitor.Retention,
			PublishAttempts: cfg.Monitor.PublishAttempts,
		}, nil, logger, metrics)
		logger.Info("monitor enabled", "interval", cfg.Monitor.Interval, "dedup_window", cfg.Monitor.DedupWindow)
	} else {
		logger.Info("monitor disabled")
	}

	var store httpapi.Store
	if pg != nil {
		store = pg
	}
	var ready httpapi.ReadinessChecker
	if mon != nil {
		ready = mon
	}

	srv := httpapi.NewServer(cfg.HTTP.Addr, eng, store, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduled sweeps.
	if mon != nil {
		go func() {
			if err := mon.Run(ctx); err != nil {
				logger.Error("monitor error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if pg != nil {
		if err := pg.Close(); err != nil {
			logger.Error("postgres store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// engineOptions maps configuration onto the analyzer parameter sets. The
// config surface exposes the tunable subset; confidence shaping keeps its
// operational defaults.
func engineOptions(cfg *config.Config) engine.Options {
	flood := domain.DefaultFloodParams()
	flood.WeightElevation = cfg.Flood.WeightElevation
	flood.WeightPrecipitation = cfg.Flood.WeightPrecipitation
	flood.WeightTide = cfg.Flood.WeightTide
	flood.RefElevationMeters = cfg.Flood.RefElevationMeters
	flood.PrecipScaleMM = cfg.Flood.PrecipScaleMM
	flood.TideScaleMeters = cfg.Flood.TideScaleMeters

	return engine.Options{
		Erosion: domain.ErosionParams{
			MediumRate:   cfg.Erosion.MediumRate,
			HighRate:     cfg.Erosion.HighRate,
			CriticalRate: cfg.Erosion.CriticalRate,
		},
		Flood:           flood,
		ThreatThreshold: cfg.Threat.Threshold,
		Bands:           domain.DefaultFractionBands(),
	}
}
