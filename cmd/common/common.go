// Package common provides shared utilities for the CLI commands: run
// configuration loading, dataset-derived configuration defaults, and logger
// construction.
package common

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// LoadRunConfig reads a run configuration from a YAML file, or returns the
// defaults when path is empty.
func LoadRunConfig(path string) (*federation.FederationConfig, error) {
	config := federation.DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// FillFromDataset derives feature names and the canonical class list from a
// loaded dataset when the configuration leaves them empty.
func FillFromDataset(config *federation.FederationConfig, ds dataset.Dataset, featureNames []string) {
	if len(config.FeatureNames) == 0 {
		config.FeatureNames = featureNames
	}
	if len(config.Classes) == 0 {
		config.Classes = ds.Classes()
	}
}

// NewLogger creates the standard CLI logger.
func NewLogger(name, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(level),
	})
}
