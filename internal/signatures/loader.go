// Package signatures loads threat signature banks from YAML files.
//
// A bank file is configuration data: a list of categories, centroids, and
// severity weights, validated and frozen into a domain.SignatureBank at
// process start.
package signatures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

// BankFile is the on-disk YAML shape of a signature bank.
type BankFile struct {
	Signatures []SignatureEntry `yaml:"signatures"`
}

// SignatureEntry is one signature row in a bank file.
type SignatureEntry struct {
	Category           string    `yaml:"category"`
	BaseSeverityWeight float64   `yaml:"base_severity_weight"`
	Centroid           []float32 `yaml:"centroid,flow"`
}

// Load reads and validates a signature bank from a YAML file.
func Load(path string) (*domain.SignatureBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signature bank: %w", err)
	}
	return Parse(data)
}

// Parse validates a signature bank from raw YAML.
func Parse(data []byte) (*domain.SignatureBank, error) {
	var file BankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing signature bank: %w", err)
	}

	sigs := make([]domain.ThreatSignature, len(file.Signatures))
	for i, entry := range file.Signatures {
		sigs[i] = domain.ThreatSignature{
			Category:           domain.Category(entry.Category),
			Centroid:           entry.Centroid,
			BaseSeverityWeight: entry.BaseSeverityWeight,
		}
	}

	bank, err := domain.NewSignatureBank(sigs)
	if err != nil {
		return nil, fmt.Errorf("invalid signature bank: %w", err)
	}
	return bank, nil
}

// Encode renders signatures back to the YAML bank format. Used by the
// genbank tool to emit fixture banks.
func Encode(sigs []domain.ThreatSignature) ([]byte, error) {
	file := BankFile{Signatures: make([]SignatureEntry, len(sigs))}
	for i, sig := range sigs {
		file.Signatures[i] = SignatureEntry{
			Category:           string(sig.Category),
			BaseSeverityWeight: sig.BaseSeverityWeight,
			Centroid:           sig.Centroid,
		}
	}
	return yaml.Marshal(file)
}
