// Command genbank emits a YAML threat signature bank with deterministic
// pseudo-random unit centroids for every known threat category. The output
// is a fixture for tests and demos, not a trained model; a fixed seed always
// reproduces the same bank.
//
// Usage:
//
//	go run ./cmd/genbank -out signatures.yaml -dim 768 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/signatures"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the YAML bank")
	dim := flag.Int("dim", 768, "centroid dimensionality")
	seed := flag.Int64("seed", 1, "PRNG seed; the same seed reproduces the same bank")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *dim <= 0 {
		return fmt.Errorf("-dim must be positive, got %d", *dim)
	}

	rng := rand.New(rand.NewSource(*seed))

	categories := domain.ThreatCategories()
	sigs := make([]domain.ThreatSignature, 0, len(categories))
	for i, cat := range categories {
		sigs = append(sigs, domain.ThreatSignature{
			Category: cat,
			Centroid: unitCentroid(rng, *dim),
			// Spread the weights so fixture banks produce distinct
			// severities for equal similarities.
			BaseSeverityWeight: 0.5 + 0.1*float64(i%5),
		})
	}

	// Round-trip through the bank constructor so a generated file can never
	// fail validation at load time.
	if _, err := domain.NewSignatureBank(sigs); err != nil {
		return fmt.Errorf("generated bank is invalid: %w", err)
	}

	data, err := signatures.Encode(sigs)
	if err != nil {
		return fmt.Errorf("encoding bank: %w", err)
	}
	if err := writeFile(*out, data); err != nil {
		return fmt.Errorf("writing bank: %w", err)
	}

	log.Printf("wrote %d signatures (dim=%d, seed=%d): %s", len(sigs), *dim, *seed, *out)
	return nil
}

// unitCentroid draws a gaussian vector and normalizes it to unit length, so
// cosine similarity against generated banks stays well conditioned.
func unitCentroid(rng *rand.Rand, dim int) []float32 {
	v := make([]float64, dim)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	out := make([]float32, dim)
	for i := range v {
		out[i] = float32(v[i] / norm)
	}
	return out
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
