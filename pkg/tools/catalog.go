package tools

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/schema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogFile represents the structure of catalog.yaml.
type catalogFile struct {
	Tools []domain.Tool `yaml:"tools"`
}

// DefaultCatalog returns the tool definitions advertised to the model.
func DefaultCatalog() []domain.Tool {
	tools, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded tool catalog is invalid: %v", err))
	}
	return tools
}

// LoadCatalog reads a catalog file, falling back to the embedded one when
// path is empty.
func LoadCatalog(path string) ([]domain.Tool, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Entries must be named and unique.
func ParseCatalog(data []byte) ([]domain.Tool, error) {
	var cfg catalogFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tool catalog: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Tools))
	for i, t := range cfg.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool #%d is missing a name", i+1)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("tool %q is defined twice", t.Name)
		}
		seen[t.Name] = true
		if _, err := schema.FromParameters(t.Parameters); err != nil {
			return nil, fmt.Errorf("tool %q has invalid parameters: %w", t.Name, err)
		}
	}
	return cfg.Tools, nil
}
