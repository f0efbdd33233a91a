// Package platform wires the trainer, fitness models, and snapshot store
// together behind one explicitly-constructed application context. The context
// is created once and passed by reference to its callers; there is no ambient
// global state.
package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"evorbf/internal/evo"
	"evorbf/internal/fitness"
	"evorbf/internal/model"
	"evorbf/internal/storage"
)

type Config struct {
	Store storage.Store
}

// Context owns the snapshot store and the set of active training runs.
type Context struct {
	store storage.Store

	mu          sync.Mutex
	initialized bool
	runs        map[string]*evo.Trainer
}

func NewContext(cfg Config) *Context {
	return &Context{
		store: cfg.Store,
		runs:  make(map[string]*evo.Trainer),
	}
}

func (c *Context) Init(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("store is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Context) Store() storage.Store {
	return c.store
}

// RunRequest describes one training run.
type RunRequest struct {
	RunID    string
	Training *model.TrainingConfig
	Inputs   [][]float64
	Ideals   [][]float64
	Seed     int64

	// Duration bounds the run; zero runs until the context is cancelled or
	// StopRun is called.
	Duration time.Duration

	// ResumeSnapshotID restores the population from a stored snapshot
	// instead of generating a random one.
	ResumeSnapshotID string
	// SnapshotID names the snapshot persisted at run end; defaults to the
	// run ID.
	SnapshotID string

	// Progress, when set, is registered as a trainer progress listener.
	Progress evo.ProgressFunc
	// ReportInterval overrides the progress cadence; intended for tests.
	ReportInterval time.Duration
}

type RunResult struct {
	RunID          string
	SnapshotID     string
	OperationCount int64
	BestScore      float64
	Best           model.Genome
}

// RunTraining resolves the configured model, builds or restores the
// population, drives the steady-state trainer for the requested duration, and
// persists the final snapshot and run summary.
func (c *Context) RunTraining(ctx context.Context, req RunRequest) (RunResult, error) {
	if req.Training == nil {
		return RunResult{}, fmt.Errorf("training config is required")
	}
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return RunResult{}, fmt.Errorf("platform context is not initialized")
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	fitModel, err := fitness.Resolve(req.Training.ModelName)
	if err != nil {
		return RunResult{}, err
	}
	if err := fitModel.Init(req.Training, req.Training.ModelConfig); err != nil {
		return RunResult{}, fmt.Errorf("init model %s: %w", req.Training.ModelName, err)
	}

	population, err := evo.NewPopulation(req.Training)
	if err != nil {
		return RunResult{}, err
	}
	rng := rand.New(rand.NewSource(req.Seed))
	if req.ResumeSnapshotID != "" {
		snapshot, ok, err := c.store.GetSnapshot(ctx, req.ResumeSnapshotID)
		if err != nil {
			return RunResult{}, err
		}
		if !ok {
			return RunResult{}, fmt.Errorf("snapshot not found: %s", req.ResumeSnapshotID)
		}
		if err := population.Restore(snapshot, fitModel); err != nil {
			return RunResult{}, fmt.Errorf("restore snapshot %s: %w", req.ResumeSnapshotID, err)
		}
	} else {
		population.Generate(rng, fitModel)
	}
	population.ScoreAll(fitModel, req.Inputs, req.Ideals)

	trainer, err := evo.NewTrainer(evo.TrainerConfig{
		Config:         req.Training,
		Population:     population,
		Model:          fitModel,
		Inputs:         req.Inputs,
		Ideals:         req.Ideals,
		Seed:           req.Seed,
		ReportInterval: req.ReportInterval,
	})
	if err != nil {
		return RunResult{}, err
	}
	if req.Progress != nil {
		trainer.AddProgressListener(req.Progress)
	}

	if err := c.registerRun(runID, trainer); err != nil {
		return RunResult{}, err
	}
	defer c.unregisterRun(runID)

	if err := trainer.Start(ctx); err != nil {
		return RunResult{}, err
	}

	if req.Duration > 0 {
		timer := time.NewTimer(req.Duration)
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		timer.Stop()
		err = trainer.Stop()
	} else {
		err = trainer.Wait()
	}
	if err != nil {
		return RunResult{}, fmt.Errorf("run %s aborted: %w", runID, err)
	}

	// Cancelling ctx is how interrupts end an unbounded run, so by this
	// point it is usually already cancelled. The final snapshot and summary
	// must still reach the store.
	persistCtx := context.WithoutCancel(ctx)

	snapshotID := req.SnapshotID
	if snapshotID == "" {
		snapshotID = runID
	}
	snapshot := population.Snapshot(snapshotID)
	if err := c.store.SaveSnapshot(persistCtx, snapshot); err != nil {
		return RunResult{}, err
	}
	summary := model.RunSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:          runID,
		SnapshotID:     snapshotID,
		ModelName:      req.Training.ModelName,
		OperationCount: trainer.OperationCount(),
		BestScore:      trainer.BestScore(),
	}
	if err := c.store.SaveRunSummary(persistCtx, summary); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		RunID:          runID,
		SnapshotID:     snapshotID,
		OperationCount: summary.OperationCount,
		BestScore:      summary.BestScore,
		Best:           *population.Best().Clone(),
	}, nil
}

// StopRun cooperatively stops an active run. It returns once the run's
// worker has exited.
func (c *Context) StopRun(runID string) error {
	c.mu.Lock()
	trainer, ok := c.runs[runID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	return trainer.Stop()
}

func (c *Context) ActiveRuns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.runs))
	for id := range c.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Context) registerRun(runID string, trainer *evo.Trainer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	c.runs[runID] = trainer
	return nil
}

func (c *Context) unregisterRun(runID string) {
	c.mu.Lock()
	delete(c.runs, runID)
	c.mu.Unlock()
}
