//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo API (no key required).
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

const liveBaseURL = "https://api.open-meteo.com"

func TestSmoke_Current(t *testing.T) {
	c := NewForecastClient(liveBaseURL, 10*time.Second, testLogger())

	// Digha, West Bengal coastline
	obs, err := c.Current(context.Background(), 21.63, 87.51)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, obs.Precipitation, 0.0)
	assert.GreaterOrEqual(t, obs.WindSpeed, 0.0)
	assert.Greater(t, obs.Pressure, 800.0, "surface pressure should be plausible")
}

func TestSmoke_Elevation(t *testing.T) {
	c := NewElevationClient(liveBaseURL, 10*time.Second, testLogger())

	elevation, err := c.Elevation(context.Background(), 21.63, 87.51)
	require.NoError(t, err)

	// coastal location: near sea level but terrain data varies
	assert.Greater(t, elevation, -100.0)
	assert.Less(t, elevation, 500.0)
}
