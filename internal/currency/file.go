package currency

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of a rate file:
//
//	canonical: USD
//	rates:
//	  USD: 1
//	  EUR: 0.92
type fileFormat struct {
	Canonical string             `yaml:"canonical"`
	Rates     map[string]float64 `yaml:"rates"`
}

// LoadFile reads a YAML rate file and returns a validated Table.
// A missing canonical key defaults to USD.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rates file %s: %w", path, err)
	}
	if f.Canonical == "" {
		f.Canonical = DefaultCanonical
	}
	if len(f.Rates) == 0 {
		return nil, fmt.Errorf("rates file %s defines no rates", path)
	}

	t, err := NewTable(f.Canonical, f.Rates)
	if err != nil {
		return nil, fmt.Errorf("invalid rates file %s: %w", path, err)
	}
	return t, nil
}

// Load returns the table from path, or the built-in table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
