// Package clay adapts a Clay-style imagery embedding inference service to the
// engine's embedding provider interface.
package clay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
)

// Client implements engine.EmbeddingProvider against an inference service
// that embeds the most recent cloud-free acquisition covering a geometry.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an embedding client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Embed returns the embedding for an area of interest.
func (c *Client) Embed(ctx context.Context, geometry domain.Geometry) (engine.EmbeddingResult, error) {
	payload, err := json.Marshal(embedRequest{Geometry: geometry})
	if err != nil {
		return engine.EmbeddingResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(payload))
	if err != nil {
		return engine.EmbeddingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return engine.EmbeddingResult{}, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return engine.EmbeddingResult{}, fmt.Errorf("clay API error: status %d: %s", resp.StatusCode, body)
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return engine.EmbeddingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(er.Embedding) == 0 {
		return engine.EmbeddingResult{}, fmt.Errorf("clay API returned an empty embedding")
	}

	result := engine.EmbeddingResult{
		Embedding:       er.Embedding,
		CloudCoverage:   er.CloudCoverage,
		SpectralIndices: er.SpectralIndices,
	}
	if !er.AcquiredAt.IsZero() {
		result.AcquisitionAge = time.Since(er.AcquiredAt)
	}
	return result, nil
}

// Inference API request/response types.

type embedRequest struct {
	Geometry domain.Geometry `json:"geometry"`
}

type embedResponse struct {
	Embedding       []float32          `json:"embedding"`
	AcquiredAt      time.Time          `json:"acquired_at"`
	CloudCoverage   float64            `json:"cloud_coverage"`
	SpectralIndices map[string]float64 `json:"spectral_indices"`
}
