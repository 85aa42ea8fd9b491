package federation

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FederationConfig provides the run configuration shared by the coordinator
// and every worker. The coordinator owns the canonical copy and serves it to
// workers at startup; it is immutable once the run begins.
type FederationConfig struct {
	// TotalRounds is the number of fit+evaluate cycles to run.
	TotalRounds int `json:"total_rounds" yaml:"total_rounds"`

	// MinParticipants is the quorum: no round starts or completes with
	// fewer than this many workers contributing.
	MinParticipants int `json:"min_participants" yaml:"min_participants"`

	// PerRoundTimeout bounds each collection phase of a round.
	PerRoundTimeout time.Duration `json:"per_round_timeout,string" yaml:"per_round_timeout"`

	// MaxRoundRetries is how many times a failed round is retried under the
	// same round number before the run aborts.
	MaxRoundRetries int `json:"max_round_retries" yaml:"max_round_retries"`

	// WorkerCount is the number of dataset shards; worker ordinals run in
	// [0, WorkerCount).
	WorkerCount int `json:"worker_count" yaml:"worker_count"`

	// SplitRatio is the fraction of each shard used for training; the
	// remainder is held out for evaluation.
	SplitRatio float64 `json:"split_ratio" yaml:"split_ratio"`

	// FeatureNames are the dataset's feature columns, in order.
	FeatureNames []string `json:"feature_names" yaml:"feature_names"`

	// Classes is the canonical sorted label list. Every worker uses this
	// ordering so parameter vectors share a shape.
	Classes []string `json:"classes" yaml:"classes"`

	// Hyperparameters are broadcast unchanged in every RoundConfig.
	Hyperparameters Hyperparameters `json:"hyperparameters" yaml:"hyperparameters"`
}

// Hyperparameters are trainer settings broadcast with each round.
type Hyperparameters struct {
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Epochs       int     `json:"epochs" yaml:"epochs"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns the configuration matching the original three-worker
// crop recommendation deployment.
func DefaultConfig() *FederationConfig {
	return &FederationConfig{
		TotalRounds:     3,
		MinParticipants: 2,
		PerRoundTimeout: 30 * time.Second,
		MaxRoundRetries: 2,
		WorkerCount:     3,
		SplitRatio:      0.8,
		Hyperparameters: Hyperparameters{
			LearningRate: 0.1,
			Epochs:       1,
			BatchSize:    16,
		},
	}
}

// ParameterShape returns the length of a parameter vector under this
// configuration: one centroid row of len(FeatureNames) per class.
func (c *FederationConfig) ParameterShape() int {
	return len(c.Classes) * len(c.FeatureNames)
}

// UnmarshalYAML decodes a run configuration, accepting human-readable
// durations like "30s". Keys absent from the document keep their current
// values, so defaults survive a partial config file.
func (c *FederationConfig) UnmarshalYAML(value *yaml.Node) error {
	aux := struct {
		TotalRounds     int             `yaml:"total_rounds"`
		MinParticipants int             `yaml:"min_participants"`
		PerRoundTimeout string          `yaml:"per_round_timeout"`
		MaxRoundRetries int             `yaml:"max_round_retries"`
		WorkerCount     int             `yaml:"worker_count"`
		SplitRatio      float64         `yaml:"split_ratio"`
		FeatureNames    []string        `yaml:"feature_names"`
		Classes         []string        `yaml:"classes"`
		Hyperparameters Hyperparameters `yaml:"hyperparameters"`
	}{
		TotalRounds:     c.TotalRounds,
		MinParticipants: c.MinParticipants,
		PerRoundTimeout: c.PerRoundTimeout.String(),
		MaxRoundRetries: c.MaxRoundRetries,
		WorkerCount:     c.WorkerCount,
		SplitRatio:      c.SplitRatio,
		FeatureNames:    c.FeatureNames,
		Classes:         c.Classes,
		Hyperparameters: c.Hyperparameters,
	}

	if err := value.Decode(&aux); err != nil {
		return err
	}

	timeout, err := time.ParseDuration(aux.PerRoundTimeout)
	if err != nil {
		return fmt.Errorf("per_round_timeout: %w", err)
	}

	c.TotalRounds = aux.TotalRounds
	c.MinParticipants = aux.MinParticipants
	c.PerRoundTimeout = timeout
	c.MaxRoundRetries = aux.MaxRoundRetries
	c.WorkerCount = aux.WorkerCount
	c.SplitRatio = aux.SplitRatio
	c.FeatureNames = aux.FeatureNames
	c.Classes = aux.Classes
	c.Hyperparameters = aux.Hyperparameters
	return nil
}

// Validate checks the configuration surface consumed at startup.
func (c *FederationConfig) Validate() error {
	if c.TotalRounds < 1 {
		return errors.New("total_rounds must be positive")
	}
	if c.MinParticipants < 1 {
		return errors.New("min_participants must be at least 1")
	}
	if c.PerRoundTimeout <= 0 {
		return errors.New("per_round_timeout must be positive")
	}
	if c.MaxRoundRetries < 0 {
		return errors.New("max_round_retries cannot be negative")
	}
	if c.WorkerCount < 1 {
		return errors.New("worker_count must be at least 1")
	}
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		return fmt.Errorf("split_ratio must be in (0, 1), got %v", c.SplitRatio)
	}
	if len(c.FeatureNames) == 0 {
		return errors.New("feature_names cannot be empty")
	}
	if len(c.Classes) == 0 {
		return errors.New("classes cannot be empty")
	}
	return nil
}
