// Package testutil provides test fixtures for the federated training stack:
// customizable run configurations and deterministic synthetic datasets whose
// classes form separable clusters, so classifier-dependent tests have
// predictable outcomes.
package testutil

import (
	"math/rand"
	"time"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// ConfigOption customizes a test configuration.
type ConfigOption func(*federation.FederationConfig)

// NewTestConfig returns a small, fast run configuration for tests. The
// defaults are two rounds across two workers over a two-class dataset.
func NewTestConfig(opts ...ConfigOption) *federation.FederationConfig {
	config := &federation.FederationConfig{
		TotalRounds:     2,
		MinParticipants: 2,
		PerRoundTimeout: 5 * time.Second,
		MaxRoundRetries: 1,
		WorkerCount:     2,
		SplitRatio:      0.8,
		FeatureNames:    []string{"f0", "f1", "f2"},
		Classes:         []string{"alpha", "beta"},
		Hyperparameters: federation.Hyperparameters{
			LearningRate: 0.1,
			Epochs:       1,
			BatchSize:    16,
		},
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// WithTotalRounds sets the round count.
func WithTotalRounds(n int) ConfigOption {
	return func(c *federation.FederationConfig) { c.TotalRounds = n }
}

// WithMinParticipants sets the quorum threshold.
func WithMinParticipants(n int) ConfigOption {
	return func(c *federation.FederationConfig) { c.MinParticipants = n }
}

// WithWorkerCount sets the number of dataset shards.
func WithWorkerCount(n int) ConfigOption {
	return func(c *federation.FederationConfig) { c.WorkerCount = n }
}

// WithPerRoundTimeout sets the per-phase collection timeout.
func WithPerRoundTimeout(d time.Duration) ConfigOption {
	return func(c *federation.FederationConfig) { c.PerRoundTimeout = d }
}

// WithMaxRoundRetries sets the retry budget for failed rounds.
func WithMaxRoundRetries(n int) ConfigOption {
	return func(c *federation.FederationConfig) { c.MaxRoundRetries = n }
}

// WithClasses sets the label list.
func WithClasses(classes ...string) ConfigOption {
	return func(c *federation.FederationConfig) { c.Classes = classes }
}

// WithFeatureNames sets the feature columns.
func WithFeatureNames(names ...string) ConfigOption {
	return func(c *federation.FederationConfig) { c.FeatureNames = names }
}

// GenerateDataset builds a deterministic synthetic dataset with rowsPerClass
// rows for each class. Rows of class i cluster around the point whose every
// coordinate is 10*(i+1), with small jitter, so a nearest-centroid model
// separates the classes perfectly.
func GenerateDataset(classes []string, numFeatures, rowsPerClass int) dataset.Dataset {
	rng := rand.New(rand.NewSource(1))

	ds := make(dataset.Dataset, 0, len(classes)*rowsPerClass)
	for i, class := range classes {
		center := float64(10 * (i + 1))
		for r := 0; r < rowsPerClass; r++ {
			features := make([]float64, numFeatures)
			for f := range features {
				features[f] = center + rng.Float64()
			}
			ds = append(ds, dataset.Row{Features: features, Label: class})
		}
	}

	// Interleave classes the way a real export would not group them.
	rng.Shuffle(len(ds), func(a, b int) { ds[a], ds[b] = ds[b], ds[a] })
	return ds
}

// DatasetFor generates a synthetic dataset matching a configuration's
// classes and feature count.
func DatasetFor(config *federation.FederationConfig, rowsPerClass int) dataset.Dataset {
	return GenerateDataset(config.Classes, len(config.FeatureNames), rowsPerClass)
}

// Partitions shards a dataset for every worker ordinal in the configuration.
func Partitions(config *federation.FederationConfig, ds dataset.Dataset) ([]*dataset.Partition, error) {
	parts := make([]*dataset.Partition, config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		p, err := dataset.NewPartition(ds, i, config.WorkerCount, config.SplitRatio)
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}
	return parts, nil
}
