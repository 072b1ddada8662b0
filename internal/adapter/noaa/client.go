// Package noaa adapts the NOAA CO-OPS tides and currents API to the engine's
// tide provider interface.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
)

// Client implements engine.TideProvider for a single CO-OPS station.
type Client struct {
	httpClient *http.Client
	baseURL    string
	station    string
	logger     *slog.Logger

	// Datums are fixed for a tidal epoch, so the MSL offset is fetched once
	// per process and reused.
	mu  sync.Mutex
	msl *float64
}

// NewClient creates a CO-OPS client for the given station ID.
func NewClient(baseURL, station string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		station: station,
		logger:  logger,
	}
}

// WaterLevel returns the latest observed water level at the station together
// with the station's mean sea level datum, both relative to the station
// datum (STND) in meters.
func (c *Client) WaterLevel(ctx context.Context) (engine.WaterLevelReading, error) {
	latest, err := c.latestWaterLevel(ctx)
	if err != nil {
		return engine.WaterLevelReading{}, err
	}

	msl, err := c.meanSeaLevel(ctx)
	if err != nil {
		return engine.WaterLevelReading{}, err
	}

	return engine.WaterLevelReading{
		TideLevel:                latest,
		HistoricalMeanWaterLevel: msl,
	}, nil
}

func (c *Client) latestWaterLevel(ctx context.Context) (float64, error) {
	params := url.Values{
		"product":     {"water_level"},
		"date":        {"latest"},
		"station":     {c.station},
		"datum":       {"STND"},
		"units":       {"metric"},
		"time_zone":   {"gmt"},
		"format":      {"json"},
		"application": {"coastal-risk-engine"},
	}

	var resp waterLevelResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/prod/datagetter?"+params.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("noaa water level: %w", err)
	}

	// CO-OPS reports request problems in-band with a 200 status.
	if resp.Error.Message != "" {
		return 0, fmt.Errorf("noaa water level: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("noaa water level: no observations for station %s", c.station)
	}

	v, err := strconv.ParseFloat(resp.Data[0].Value, 64)
	if err != nil {
		return 0, fmt.Errorf("noaa water level: parse %q: %w", resp.Data[0].Value, err)
	}
	return v, nil
}

func (c *Client) meanSeaLevel(ctx context.Context) (float64, error) {
	c.mu.Lock()
	if c.msl != nil {
		v := *c.msl
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	u := fmt.Sprintf("%s/mdapi/prod/webapi/stations/%s/datums.json?units=metric", c.baseURL, c.station)

	var resp datumsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("noaa datums: %w", err)
	}

	for _, d := range resp.Datums {
		if d.Name == "MSL" {
			c.mu.Lock()
			c.msl = &d.Value
			c.mu.Unlock()
			return d.Value, nil
		}
	}
	return 0, fmt.Errorf("noaa datums: station %s has no MSL datum", c.station)
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
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

// CO-OPS API response types. Observation values arrive as strings.

type waterLevelResponse struct {
	Data  []waterLevelDatum `json:"data"`
	Error apiError          `json:"error"`
}

type waterLevelDatum struct {
	Time  string `json:"t"`
	Value string `json:"v"`
}

type apiError struct {
	Message string `json:"message"`
}

type datumsResponse struct {
	Datums []datum `json:"datums"`
}

type datum struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
