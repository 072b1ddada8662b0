// Command assess runs a single risk assessment from the command line and
// prints the composite report as JSON on stdout. It reaches the same live
// providers as the service unless -offline is set, in which case features
// come from the request itself plus the reference fallbacks.
//
// Usage:
//
//	go run ./cmd/assess -lat 21.63 -lon 87.51
//	go run ./cmd/assess -request request.json -bank signatures.yaml -pretty
//
// A request file carries the same shape as the POST /v1/assessments body:
// geometry, optional analyzers, displacement samples, and feature overrides.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/noaa"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/adapter/openmeteo"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/observability"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/signatures"
)

// requestFile is the on-disk request shape, mirroring the HTTP API body.
type requestFile struct {
	Geometry  domain.Geometry             `json:"geometry"`
	Analyzers []string                    `json:"analyzers,omitempty"`
	Samples   []domain.DisplacementSample `json:"samples,omitempty"`
	Features  *domain.FeatureRecord       `json:"features,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	requestPath := flag.String("request", "", "path to a JSON assessment request file")
	lat := flag.String("lat", "", "point latitude for a quick flood check")
	lon := flag.String("lon", "", "point longitude for a quick flood check")
	bankPath := flag.String("bank", "", "YAML signature bank enabling threat classification")
	station := flag.String("station", "8518750", "NOAA station for tide levels")
	threshold := flag.Float64("threshold", 0.5, "threat match probability threshold")
	offline := flag.Bool("offline", false, "skip live providers; resolve from the request and fallbacks only")
	pretty := flag.Bool("pretty", false, "indent the report JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "overall assessment deadline")
	flag.Parse()

	if *requestPath == "" && (*lat == "" || *lon == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -request, or both -lat and -lon")
	}

	req, err := buildRequest(*requestPath, *lat, *lon)
	if err != nil {
		return err
	}

	// Diagnostics go to stderr so the report stays alone on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()

	var providers engine.Providers
	if !*offline {
		providers.Weather = openmeteo.NewForecastClient("https://api.open-meteo.com", 5*time.Second, logger)
		providers.Elevation = openmeteo.NewElevationClient("https://api.open-meteo.com", 5*time.Second, logger)
		providers.Tide = noaa.NewClient("https://api.tidesandcurrents.noaa.gov", *station, 5*time.Second, logger)
	}

	var bank *domain.SignatureBank
	if *bankPath != "" {
		bank, err = signatures.Load(*bankPath)
		if err != nil {
			return err
		}
	}

	resolver := engine.NewResolver(providers, engine.ResolverOptions{
		Timeout: 5 * time.Second,
		Fallbacks: engine.Fallbacks{
			Enabled:         true,
			ElevationMeters: 100,
			PrecipitationMM: 0,
		},
	}, logger, metrics)

	eng := engine.New(resolver, bank, engine.Options{
		Erosion:         domain.DefaultErosionParams(),
		Flood:           domain.DefaultFloodParams(),
		ThreatThreshold: *threshold,
		Bands:           domain.DefaultFractionBands(),
	}, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := eng.Assess(ctx, req)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	var data []byte
	if *pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// buildRequest assembles the assessment request from a request file or from
// -lat/-lon. File geometry wins when both are given.
func buildRequest(path, lat, lon string) (engine.AssessmentRequest, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return engine.AssessmentRequest{}, fmt.Errorf("reading request file: %w", err)
		}
		var file requestFile
		if err := json.Unmarshal(data, &file); err != nil {
			return engine.AssessmentRequest{}, fmt.Errorf("parsing request file: %w", err)
		}
		analyzers := make([]engine.Analyzer, 0, len(file.Analyzers))
		for _, name := range file.Analyzers {
			a, err := engine.ParseAnalyzer(name)
			if err != nil {
				return engine.AssessmentRequest{}, err
			}
			analyzers = append(analyzers, a)
		}
		return engine.AssessmentRequest{
			Geometry:  file.Geometry,
			Analyzers: analyzers,
			Samples:   file.Samples,
			Features:  file.Features,
		}, nil
	}

	latV, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return engine.AssessmentRequest{}, fmt.Errorf("invalid -lat %q: %w", lat, err)
	}
	lonV, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return engine.AssessmentRequest{}, fmt.Errorf("invalid -lon %q: %w", lon, err)
	}
	return engine.AssessmentRequest{Geometry: domain.PointGeometry(latV, lonV)}, nil
}
