package signatures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

const validBank = `
signatures:
  - category: THREAT_POLLUTION
    base_severity_weight: 1.0
    centroid: [0.9, 0.1, 0.0]
  - category: THREAT_ALGAL_BLOOM
    base_severity_weight: 0.7
    centroid: [0.0, 0.8, 0.6]
`

func TestParse(t *testing.T) {
	t.Run("valid bank", func(t *testing.T) {
		bank, err := Parse([]byte(validBank))

		require.NoError(t, err)
		assert.Equal(t, 3, bank.Dimension())
		assert.Equal(t, 2, bank.Size())
		assert.Equal(t, []domain.Category{
			domain.CategoryThreatPollution,
			domain.CategoryThreatAlgalBloom,
		}, bank.Categories())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("signatures: ["))
		require.Error(t, err)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := Parse([]byte(`
signatures:
  - category: THREAT_PIRACY
    base_severity_weight: 1.0
    centroid: [1.0]
`))
		require.Error(t, err)
	})

	t.Run("mismatched dimensions", func(t *testing.T) {
		_, err := Parse([]byte(`
signatures:
  - category: THREAT_POLLUTION
    base_severity_weight: 1.0
    centroid: [1.0, 0.0]
  - category: THREAT_SEDIMENT
    base_severity_weight: 0.5
    centroid: [1.0]
`))
		require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Parse([]byte(""))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("round trip from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bank.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validBank), 0o644))

		bank, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 2, bank.Size())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestEncode(t *testing.T) {
	sigs := []domain.ThreatSignature{
		{Category: domain.CategoryThreatConstruction, Centroid: []float32{0.5, 0.5}, BaseSeverityWeight: 0.6},
	}

	data, err := Encode(sigs)
	require.NoError(t, err)

	bank, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{domain.CategoryThreatConstruction}, bank.Categories())
	assert.Equal(t, 2, bank.Dimension())
}
