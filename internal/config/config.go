// Package config loads run configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"evorbf/internal/model"
)

// Config is the root configuration structure for a training run.
type Config struct {
	Seed     int64                `yaml:"seed"`
	Training model.TrainingConfig `yaml:"training"`
	Data     DataConfig           `yaml:"data"`
	Store    StoreConfig          `yaml:"store"`
	Run      RunConfig            `yaml:"run"`
}

// DataConfig points at the CSV training data.
type DataConfig struct {
	Path         string `yaml:"path"`
	PredictField string `yaml:"predict_field"`
	Classify     bool   `yaml:"classify"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory|sqlite
	Path    string `yaml:"path"`
}

// RunConfig controls run identity, duration, and snapshot handling.
type RunConfig struct {
	ID string `yaml:"id"`
	// Duration is a time.ParseDuration string; empty means run until
	// interrupted.
	Duration string `yaml:"duration"`
	// ResumeSnapshot restores the population from a stored snapshot instead
	// of generating a random one.
	ResumeSnapshot string `yaml:"resume_snapshot"`
	// SnapshotID names the snapshot written when the run finishes; defaults
	// to the run ID.
	SnapshotID string `yaml:"snapshot_id"`

	parsedDuration time.Duration
}

// TrainDuration reports the parsed run duration; zero means unbounded.
func (r RunConfig) TrainDuration() time.Duration {
	return r.parsedDuration
}

// Default returns a configuration with defaults applied and no dataset
// bound. Callers fill the data section (e.g. from flags) before Validate.
func Default() *Config {
	return &Config{
		Seed: time.Now().UnixNano(),
		Training: model.TrainingConfig{
			PopulationSize:  1000,
			MaxParents:      4,
			MutationPercent: 0.2,
			Goal:            model.GoalMinimize,
			ModelName:       "rbf-network",
			ModelConfig:     "rbf_count=5",
		},
		Store: StoreConfig{Backend: "memory"},
	}
}

// Load reads a YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config content over the defaults and validates. The
// document is unmarshalled into a pre-populated Config, so only keys present
// in the document override a default; an explicit zero (e.g.
// `mutation_percent: 0` for crossover-only runs) is preserved rather than
// mistaken for an unset field.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Seed 0 means "pick one": a fixed seed of zero has no reproducibility
	// value over a time-derived one.
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and parses the run duration.
func (cfg *Config) Validate() error {
	if cfg.Training.PopulationSize <= 0 {
		return fmt.Errorf("training.population_size must be > 0")
	}
	if cfg.Training.MaxParents < 2 {
		return fmt.Errorf("training.max_parents must be >= 2")
	}
	if cfg.Training.MutationPercent < 0 || cfg.Training.MutationPercent > 1 {
		return fmt.Errorf("training.mutation_percent must be in [0,1]")
	}
	switch cfg.Training.Goal {
	case model.GoalMaximize, model.GoalMinimize:
	default:
		return fmt.Errorf("training.goal must be maximize or minimize, got %q", cfg.Training.Goal)
	}
	if cfg.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if cfg.Data.PredictField == "" {
		return fmt.Errorf("data.predict_field is required")
	}
	if cfg.Run.Duration != "" {
		d, err := time.ParseDuration(cfg.Run.Duration)
		if err != nil {
			return fmt.Errorf("run.duration: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("run.duration must not be negative")
		}
		cfg.Run.parsedDuration = d
	}
	return nil
}
