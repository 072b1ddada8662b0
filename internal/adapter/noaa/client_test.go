package noaa

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStation = "8518750"

const waterLevelBody = `{
	"metadata": {"id": "8518750", "name": "The Battery", "lat": "40.7006", "lon": "-74.0142"},
	"data": [{"t": "2026-08-22 06:30", "v": "1.626", "s": "0.003", "f": "1,0,0,0", "q": "v"}]
}`

const datumsBody = `{
	"datums": [
		{"name": "MHHW", "value": 2.159},
		{"name": "MSL", "value": 1.372},
		{"name": "MLLW", "value": 0.535}
	]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coopsServer(t *testing.T, waterLevel, datums string) (*httptest.Server, *atomic.Int64, *atomic.Int64) {
	t.Helper()
	var waterLevelCalls, datumCalls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/prod/datagetter":
			waterLevelCalls.Add(1)
			assert.Equal(t, testStation, r.URL.Query().Get("station"))
			assert.Equal(t, "water_level", r.URL.Query().Get("product"))
			assert.Equal(t, "STND", r.URL.Query().Get("datum"))
			_, _ = w.Write([]byte(waterLevel))
		case r.URL.Path == "/mdapi/prod/webapi/stations/"+testStation+"/datums.json":
			datumCalls.Add(1)
			_, _ = w.Write([]byte(datums))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	return srv, &waterLevelCalls, &datumCalls
}

func TestClient_WaterLevel_Success(t *testing.T) {
	srv, _, _ := coopsServer(t, waterLevelBody, datumsBody)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	reading, err := c.WaterLevel(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.626, reading.TideLevel)
	assert.Equal(t, 1.372, reading.HistoricalMeanWaterLevel)
}

func TestClient_WaterLevel_DatumsFetchedOnce(t *testing.T) {
	srv, waterLevelCalls, datumCalls := coopsServer(t, waterLevelBody, datumsBody)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())

	_, err := c.WaterLevel(context.Background())
	require.NoError(t, err)
	_, err = c.WaterLevel(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, waterLevelCalls.Load())
	assert.EqualValues(t, 1, datumCalls.Load())
}

func TestClient_WaterLevel_InBandError(t *testing.T) {
	// CO-OPS reports bad requests with a 200 status and an error body
	srv, _, _ := coopsServer(t, `{"error": {"message": "No data was found for this station"}}`, datumsBody)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	_, err := c.WaterLevel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data was found")
}

func TestClient_WaterLevel_NoObservations(t *testing.T) {
	srv, _, _ := coopsServer(t, `{"data": []}`, datumsBody)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	_, err := c.WaterLevel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no observations")
}

func TestClient_WaterLevel_UnparsableValue(t *testing.T) {
	srv, _, _ := coopsServer(t, `{"data": [{"t": "2026-08-22 06:30", "v": ""}]}`, datumsBody)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	_, err := c.WaterLevel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestClient_WaterLevel_MissingMSLDatum(t *testing.T) {
	srv, _, _ := coopsServer(t, waterLevelBody, `{"datums": [{"name": "MHHW", "value": 2.159}]}`)
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	_, err := c.WaterLevel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no MSL datum")
}

func TestClient_WaterLevel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testStation, 5*time.Second, testLogger())
	_, err := c.WaterLevel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
