// Package config loads service settings from an optional config.yaml and
// COASTAL_-prefixed environment variables, with typed defaults for every
// tunable.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the risk engine service and CLIs.
type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Engine    EngineConfig
	Fallbacks FallbacksConfig
	Erosion   ErosionConfig
	Flood     FloodConfig
	Threat    ThreatConfig
	Providers ProvidersConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	Monitor   MonitorConfig
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// EngineConfig holds assessment orchestration settings.
type EngineConfig struct {
	CacheSize       int           // feature cache entries, 0 disables caching
	CacheTTL        time.Duration // max age of a cached feature record
	ProviderTimeout time.Duration // per provider call
}

// FallbacksConfig holds reference defaults substituted when a provider fails.
// Tide and embedding have no safe defaults and are left absent on failure.
type FallbacksConfig struct {
	Enabled         bool
	ElevationMeters float64
	PrecipitationMM float64
}

// ErosionConfig holds the severity thresholds in meters per ordinal unit.
type ErosionConfig struct {
	MediumRate   float64
	HighRate     float64
	CriticalRate float64
}

// FloodConfig holds the flood composite weights and normalization scales.
type FloodConfig struct {
	WeightElevation     float64
	WeightPrecipitation float64
	WeightTide          float64
	RefElevationMeters  float64
	PrecipScaleMM       float64
	TideScaleMeters     float64
}

// ThreatConfig holds the signature bank location and match threshold.
type ThreatConfig struct {
	BankPath  string
	Threshold float64
	Dimension int // expected embedding dimensionality
}

// ProvidersConfig holds the external feature provider settings.
type ProvidersConfig struct {
	OpenMeteo OpenMeteoConfig
	NOAA      NOAAConfig
	Clay      ClayConfig
}

// OpenMeteoConfig configures the weather and elevation provider.
type OpenMeteoConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// NOAAConfig configures the tide / water-level provider.
type NOAAConfig struct {
	Enabled bool
	BaseURL string
	Station string
	Timeout time.Duration
}

// ClayConfig configures the imagery embedding provider.
type ClayConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PostgresConfig holds the store settings. An empty DSN disables persistence.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds the alert publisher settings. Empty brokers disable
// publishing.
type KafkaConfig struct {
	Brokers    []string
	AlertTopic string
}

// MonitorConfig holds the scheduled sweep settings.
type MonitorConfig struct {
	Enabled         bool
	Interval        time.Duration
	DedupWindow     time.Duration
	Retention       time.Duration
	PublishAttempts int
}

// Load reads configuration from config.yaml (optional) and environment
// variables, applying defaults where unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/coastal-risk")

	setDefaults(v)

	v.SetEnvPrefix("COASTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are a complete configuration; only a
		// malformed file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdowntimeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("engine.cachesize", 1000)
	v.SetDefault("engine.cachettl", "15m")
	v.SetDefault("engine.providertimeout", "5s")

	v.SetDefault("fallbacks.enabled", true)
	v.SetDefault("fallbacks.elevationmeters", 100.0)
	v.SetDefault("fallbacks.precipitationmm", 0.0)

	v.SetDefault("erosion.mediumrate", 0.04)
	v.SetDefault("erosion.highrate", 0.08)
	v.SetDefault("erosion.criticalrate", 0.15)

	v.SetDefault("flood.weightelevation", 0.4)
	v.SetDefault("flood.weightprecipitation", 0.3)
	v.SetDefault("flood.weighttide", 0.3)
	v.SetDefault("flood.refelevationmeters", 10.0)
	v.SetDefault("flood.precipscalemm", 50.0)
	v.SetDefault("flood.tidescalemeters", 1.5)

	v.SetDefault("threat.bankpath", "")
	v.SetDefault("threat.threshold", 0.5)
	v.SetDefault("threat.dimension", 768)

	v.SetDefault("providers.openmeteo.enabled", true)
	v.SetDefault("providers.openmeteo.baseurl", "https://api.open-meteo.com")
	v.SetDefault("providers.openmeteo.timeout", "5s")

	v.SetDefault("providers.noaa.enabled", true)
	v.SetDefault("providers.noaa.baseurl", "https://api.tidesandcurrents.noaa.gov")
	v.SetDefault("providers.noaa.station", "8518750")
	v.SetDefault("providers.noaa.timeout", "5s")

	v.SetDefault("providers.clay.enabled", false)
	v.SetDefault("providers.clay.baseurl", "")
	v.SetDefault("providers.clay.apikey", "")
	v.SetDefault("providers.clay.timeout", "10s")

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.alerttopic", "coastal-alerts")

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval", "3h")
	v.SetDefault("monitor.dedupwindow", "6h")
	v.SetDefault("monitor.retention", "168h")
	v.SetDefault("monitor.publishattempts", 5)
}

// Validate rejects settings the analyzers cannot run with. Called once at
// startup; failures are fatal in main.
func (c *Config) Validate() error {
	if c.Erosion.MediumRate <= 0 || c.Erosion.HighRate <= c.Erosion.MediumRate || c.Erosion.CriticalRate <= c.Erosion.HighRate {
		return errors.New("erosion rate thresholds must be positive and strictly increasing")
	}

	weightSum := c.Flood.WeightElevation + c.Flood.WeightPrecipitation + c.Flood.WeightTide
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("flood weights must sum to 1.0, got %g", weightSum)
	}
	if c.Flood.RefElevationMeters <= 0 || c.Flood.PrecipScaleMM <= 0 || c.Flood.TideScaleMeters <= 0 {
		return errors.New("flood normalization scales must be positive")
	}

	if c.Threat.Threshold < 0 || c.Threat.Threshold > 1 {
		return fmt.Errorf("threat threshold must be in [0,1], got %g", c.Threat.Threshold)
	}
	if c.Threat.Dimension <= 0 {
		return errors.New("threat dimension must be positive")
	}

	if c.Engine.ProviderTimeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.Providers.Clay.Enabled && c.Providers.Clay.BaseURL == "" {
		return errors.New("clay provider is enabled but no base URL is set")
	}

	if c.Monitor.Enabled {
		if c.Postgres.DSN == "" {
			return errors.New("monitor requires a postgres DSN")
		}
		if c.Monitor.Interval <= 0 || c.Monitor.DedupWindow <= 0 || c.Monitor.Retention <= 0 {
			return errors.New("monitor durations must be positive")
		}
		if c.Monitor.PublishAttempts <= 0 {
			return errors.New("monitor publish attempts must be positive")
		}
	}

	return nil
}
