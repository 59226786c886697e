// Package application wires the scoring pipeline together: it loads the
// model registry and dataset, runs the per-item evaluation pipeline, and
// persists reports and the leaderboard.
package application

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RegistryConfig is the models.yaml document: providers, each carrying the
// models that can be evaluated.
type RegistryConfig struct {
	Providers map[string]ProviderEntry `yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderEntry groups a provider's display name with its models.
type ProviderEntry struct {
	// Name is the provider's display name.
	Name string `yaml:"name" validate:"required"`
	// Models lists the provider's evaluable models.
	Models []ModelEntry `yaml:"models" validate:"dive"`
}

// ModelEntry describes one candidate model in the registry.
type ModelEntry struct {
	// ID is the endpoint model id ("provider/model").
	ID string `yaml:"id" validate:"required"`
	// Name is the model's display name.
	Name string `yaml:"name" validate:"required"`
	// Enabled marks the model for batch evaluation.
	Enabled bool `yaml:"enabled"`
}

// ModelRef is a flattened, enabled registry model.
type ModelRef struct {
	ID       string
	Name     string
	Provider string
}

// LoadRegistry reads and validates a models.yaml registry file.
func LoadRegistry(path string) (*RegistryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model registry: %w", err)
	}

	var config RegistryConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing model registry: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("model registry invalid: %w", err)
	}

	return &config, nil
}

// EnabledModels returns every enabled model across providers, deduplicated
// by id, with providers visited in sorted-key order for determinism.
func (c *RegistryConfig) EnabledModels() []ModelRef {
	providerKeys := make([]string, 0, len(c.Providers))
	for key := range c.Providers {
		providerKeys = append(providerKeys, key)
	}
	sort.Strings(providerKeys)

	seen := make(map[string]struct{})
	var models []ModelRef
	for _, providerKey := range providerKeys {
		provider := c.Providers[providerKey]
		for _, model := range provider.Models {
			if !model.Enabled {
				continue
			}
			if _, dup := seen[model.ID]; dup {
				continue
			}
			seen[model.ID] = struct{}{}
			models = append(models, ModelRef{ID: model.ID, Name: model.Name, Provider: providerKey})
		}
	}
	return models
}
