package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForecastClient_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "21.630000", r.URL.Query().Get("latitude"))
		assert.Equal(t, "87.510000", r.URL.Query().Get("longitude"))
		assert.Equal(t, currentFields, r.URL.Query().Get("current"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"latitude": 21.63, "longitude": 87.51,
			"current": {
				"time": "2026-08-22T06:00",
				"temperature_2m": 29.4,
				"precipitation": 12.5,
				"wind_speed_10m": 31.2,
				"wind_direction_10m": 190,
				"surface_pressure": 998.6
			}
		}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 5*time.Second, testLogger())
	obs, err := c.Current(context.Background(), 21.63, 87.51)
	require.NoError(t, err)

	assert.Equal(t, 29.4, obs.Temperature)
	assert.Equal(t, 12.5, obs.Precipitation)
	assert.Equal(t, 31.2, obs.WindSpeed)
	assert.Equal(t, 190.0, obs.WindDirection)
	assert.Equal(t, 998.6, obs.Pressure)
}

func TestForecastClient_Current_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90"}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.Current(context.Background(), 21.63, 87.51)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestForecastClient_Current_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 50*time.Millisecond, testLogger())
	_, err := c.Current(context.Background(), 21.63, 87.51)
	require.Error(t, err)
}

func TestForecastClient_Current_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"current": `))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.Current(context.Background(), 21.63, 87.51)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestElevationClient_Elevation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/elevation", r.URL.Path)
		assert.Equal(t, "21.630000", r.URL.Query().Get("latitude"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"elevation":[3.0]}`))
	}))
	defer srv.Close()

	c := NewElevationClient(srv.URL, 5*time.Second, testLogger())
	elevation, err := c.Elevation(context.Background(), 21.63, 87.51)
	require.NoError(t, err)
	assert.Equal(t, 3.0, elevation)
}

func TestElevationClient_Elevation_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"elevation":[]}`))
	}))
	defer srv.Close()

	c := NewElevationClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.Elevation(context.Background(), 21.63, 87.51)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result")
}

func TestElevationClient_Elevation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Daily API request limit exceeded"}`))
	}))
	defer srv.Close()

	c := NewElevationClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.Elevation(context.Background(), 21.63, 87.51)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
