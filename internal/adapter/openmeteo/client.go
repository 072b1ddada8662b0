// Package openmeteo adapts the Open-Meteo public forecast and elevation APIs
// to the engine's weather and elevation provider interfaces.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
)

// currentFields selects the current-conditions variables in the order the
// observation struct expects them.
const currentFields = "temperature_2m,precipitation,wind_speed_10m,wind_direction_10m,surface_pressure"

// ForecastClient implements engine.WeatherProvider using the Open-Meteo
// forecast API. No API key is required.
type ForecastClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewForecastClient creates an Open-Meteo forecast client.
func NewForecastClient(baseURL string, timeout time.Duration, logger *slog.Logger) *ForecastClient {
	return &ForecastClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Current returns the current conditions at a coordinate.
func (c *ForecastClient) Current(ctx context.Context, lat, lon float64) (engine.WeatherObservation, error) {
	params := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lon)},
		"current":   {currentFields},
	}

	var resp forecastResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/v1/forecast?"+params.Encode(), &resp); err != nil {
		return engine.WeatherObservation{}, fmt.Errorf("open-meteo forecast: %w", err)
	}

	return engine.WeatherObservation{
		Temperature:   resp.Current.Temperature,
		Precipitation: resp.Current.Precipitation,
		WindSpeed:     resp.Current.WindSpeed,
		WindDirection: resp.Current.WindDirection,
		Pressure:      resp.Current.Pressure,
	}, nil
}

// ElevationClient implements engine.ElevationProvider using the Open-Meteo
// elevation API (Copernicus DEM, 90 m grid).
type ElevationClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewElevationClient creates an Open-Meteo elevation client.
func NewElevationClient(baseURL string, timeout time.Duration, logger *slog.Logger) *ElevationClient {
	return &ElevationClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Elevation returns terrain elevation in meters at a coordinate.
func (c *ElevationClient) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	params := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lon)},
	}

	var resp elevationResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/v1/elevation?"+params.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("open-meteo elevation: %w", err)
	}

	if len(resp.Elevation) == 0 {
		return 0, fmt.Errorf("open-meteo elevation: empty result for %.4f,%.4f", lat, lon)
	}
	return resp.Elevation[0], nil
}

func getJSON(ctx context.Context, client *http.Client, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Open-Meteo API response types.

type forecastResponse struct {
	Current currentBlock `json:"current"`
}

type currentBlock struct {
	Temperature   float64 `json:"temperature_2m"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindDirection float64 `json:"wind_direction_10m"`
	Pressure      float64 `json:"surface_pressure"`
}

type elevationResponse struct {
	Elevation []float64 `json:"elevation"`
}
