package main

import (
	"fmt"
	"time"

	"evorbf/internal/config"
	"evorbf/internal/model"
)

// loadTrainConfig reads the YAML run configuration, or starts from defaults
// when no file is given so every setting can come from flags.
func loadTrainConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

type overrides struct {
	dataPath     string
	predictField string
	classify     bool
	popSize      int
	maxParents   int
	mutation     float64
	goal         string
	modelName    string
	modelConfig  string
	seed         int64
	duration     time.Duration
	storeKind    string
	runID        string
	resume       string
	snapshotID   string
}

// overrideTrainConfig applies explicitly-set flags over the loaded config.
// Flags win over the file; unset flags leave the file values alone.
func overrideTrainConfig(cfg *config.Config, set map[string]bool, o overrides) {
	if set["data"] {
		cfg.Data.Path = o.dataPath
	}
	if set["predict"] {
		cfg.Data.PredictField = o.predictField
	}
	if set["classify"] {
		cfg.Data.Classify = o.classify
	}
	if set["pop"] {
		cfg.Training.PopulationSize = o.popSize
	}
	if set["max-parents"] {
		cfg.Training.MaxParents = o.maxParents
	}
	if set["mutation"] {
		cfg.Training.MutationPercent = o.mutation
	}
	if set["goal"] {
		cfg.Training.Goal = model.Goal(o.goal)
	}
	if set["model"] {
		cfg.Training.ModelName = o.modelName
	}
	if set["model-config"] {
		cfg.Training.ModelConfig = o.modelConfig
	}
	if set["seed"] {
		cfg.Seed = o.seed
	}
	if set["duration"] {
		cfg.Run.Duration = o.duration.String()
	}
	if set["store"] {
		cfg.Store.Backend = o.storeKind
	}
	if set["run-id"] {
		cfg.Run.ID = o.runID
	}
	if set["resume"] {
		cfg.Run.ResumeSnapshot = o.resume
	}
	if set["snapshot-id"] {
		cfg.Run.SnapshotID = o.snapshotID
	}
}
