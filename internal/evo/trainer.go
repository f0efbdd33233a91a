package evo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"evorbf/internal/fitness"
	"evorbf/internal/model"
)

// maxParentAttempts bounds the tournament samples spent gathering distinct
// crossover parents. Exceeding it indicates a static misconfiguration (the
// population is too small relative to max parents) and aborts the run.
const maxParentAttempts = 10000

// defaultReportInterval is the minimum time between progress notifications.
const defaultReportInterval = time.Second

// ProgressFunc receives the current operation count and best score. Listeners
// run on the training worker's goroutine and must not block for long.
type ProgressFunc func(operationCount int64, bestScore float64)

// TrainerConfig assembles a steady-state trainer.
type TrainerConfig struct {
	Config     *model.TrainingConfig
	Population *Population
	Model      fitness.Model
	Inputs     [][]float64
	Ideals     [][]float64
	Seed       int64

	// ReportInterval overrides the once-per-second progress cadence.
	// Intended for tests; zero means the default.
	ReportInterval time.Duration
}

// Trainer drives the continuous steady-state loop on one dedicated background
// worker: selection, variation, scoring, and replacement for a step never
// interleave with another step, which is what makes population mutation safe
// without locks. The loop observes cancellation only between steps.
type Trainer struct {
	cfg            *model.TrainingConfig
	population     *Population
	fitModel       fitness.Model
	inputs         [][]float64
	ideals         [][]float64
	rng            *rand.Rand
	listeners      []ProgressFunc
	reportInterval time.Duration

	opCount   atomic.Int64
	bestBits  atomic.Uint64
	isRunning atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("training config is required")
	}
	if cfg.Population == nil {
		return nil, fmt.Errorf("population is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("fitness model is required")
	}
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("training data is required")
	}
	if len(cfg.Inputs) != len(cfg.Ideals) {
		return nil, fmt.Errorf("training data mismatch: %d input rows, %d ideal rows", len(cfg.Inputs), len(cfg.Ideals))
	}
	if cfg.Population.Size() != cfg.Config.PopulationSize {
		return nil, fmt.Errorf("population not generated: got=%d want=%d", cfg.Population.Size(), cfg.Config.PopulationSize)
	}
	interval := cfg.ReportInterval
	if interval <= 0 {
		interval = defaultReportInterval
	}

	return &Trainer{
		cfg:            cfg.Config,
		population:     cfg.Population,
		fitModel:       cfg.Model,
		inputs:         cfg.Inputs,
		ideals:         cfg.Ideals,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		reportInterval: interval,
	}, nil
}

// AddProgressListener registers a progress callback. Listeners are invoked
// synchronously in registration order, at most once per report interval.
// Registration must happen before Start.
func (t *Trainer) AddProgressListener(fn ProgressFunc) {
	t.listeners = append(t.listeners, fn)
}

// Start launches the background worker. The worker stops when ctx is
// cancelled, Stop is called, or a step fails.
func (t *Trainer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		select {
		case <-t.done:
		default:
			return fmt.Errorf("trainer is already running")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.runErr = nil
	t.isRunning.Store(true)
	go t.run(runCtx, t.done)
	return nil
}

// Stop requests a cooperative stop and blocks until the worker has fully
// exited: no steps execute and no progress callbacks occur after Stop
// returns. It reports the run error, if any.
func (t *Trainer) Stop() error {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runErr
}

// Wait blocks until the worker exits and reports the run error, if any.
func (t *Trainer) Wait() error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runErr
}

func (t *Trainer) Running() bool {
	return t.isRunning.Load()
}

// OperationCount reports the number of completed steps.
func (t *Trainer) OperationCount() int64 {
	return t.opCount.Load()
}

// BestScore reports the most recently published best score. It is a single
// atomic load, safe for concurrent pollers while training runs; the value may
// be from the recent past.
func (t *Trainer) BestScore() float64 {
	return math.Float64frombits(t.bestBits.Load())
}

func (t *Trainer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer t.isRunning.Store(false)

	t.publishBest()
	lastReport := time.Now()

	for {
		if ctx.Err() != nil {
			return
		}

		if err := t.step(); err != nil {
			t.mu.Lock()
			t.runErr = err
			t.mu.Unlock()
			return
		}
		t.opCount.Add(1)
		t.publishBest()

		if time.Since(lastReport) >= t.reportInterval {
			lastReport = time.Now()
			count := t.opCount.Load()
			best := t.BestScore()
			for _, listener := range t.listeners {
				listener(count, best)
			}
		}
	}
}

// step performs one complete selection/variation/scoring/replacement
// sequence. An in-flight step always runs to completion; any failure is fatal
// to the run so every insertion is drawn from a correctly-scored offspring.
func (t *Trainer) step() error {
	var children []*model.Genome
	if t.rng.Float64() < t.cfg.MutationPercent {
		parent := t.population.TournamentForBest(t.rng)
		children = []*model.Genome{t.fitModel.Mutate(t.rng, parent)}
	} else {
		parents, err := t.collectParents()
		if err != nil {
			return err
		}
		children = t.fitModel.Crossover(t.rng, parents)
	}

	for _, child := range children {
		child.Score = t.fitModel.Score(child, t.inputs, t.ideals)
		t.population.AddChildAndReplace(t.rng, child)
	}
	return nil
}

// collectParents tournament-samples until MaxParents distinct population
// members are gathered, bounded at maxParentAttempts samples.
func (t *Trainer) collectParents() ([]*model.Genome, error) {
	parents := make([]*model.Genome, 0, t.cfg.MaxParents)
	seen := make(map[*model.Genome]struct{}, t.cfg.MaxParents)
	for attempts := 0; len(parents) < t.cfg.MaxParents; attempts++ {
		if attempts >= maxParentAttempts {
			return nil, fmt.Errorf("unable to gather %d distinct parents in %d attempts: population size %d is too small for max_parents",
				t.cfg.MaxParents, maxParentAttempts, t.cfg.PopulationSize)
		}
		candidate := t.population.TournamentForBest(t.rng)
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		parents = append(parents, candidate)
	}
	return parents, nil
}

func (t *Trainer) publishBest() {
	if best := t.population.Best(); best != nil {
		t.bestBits.Store(math.Float64bits(best.Score))
	}
}
