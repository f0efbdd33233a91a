package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"

	"evorbf/internal/config"
	"evorbf/internal/dataset"
	"evorbf/internal/fitness"
	"evorbf/internal/model"
	"evorbf/internal/platform"
	"evorbf/internal/storage"

	_ "evorbf/internal/rbf"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "eval":
		return runEval(ctx, args[1:])
	case "snapshots":
		return runSnapshots(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "models":
		return runModels(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML run configuration file")
	dataPath := fs.String("data", "", "CSV training data path")
	predictField := fs.String("predict", "", "predict column name")
	classify := fs.Bool("classify", false, "one-of-n encode the predict column")
	popSize := fs.Int("pop", 0, "population size")
	maxParents := fs.Int("max-parents", 0, "maximum crossover parents")
	mutation := fs.Float64("mutation", -1, "mutation probability in [0,1]")
	goal := fs.String("goal", "", "optimization goal: maximize|minimize")
	modelName := fs.String("model", "", "fitness model name")
	modelConfig := fs.String("model-config", "", "model configuration string, e.g. rbf_count=5")
	seed := fs.Int64("seed", 0, "random seed")
	duration := fs.Duration("duration", 0, "training duration; 0 runs until interrupted")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evorbf.db", "sqlite database path")
	runID := fs.String("run-id", "", "run identifier")
	resume := fs.String("resume", "", "snapshot id to resume from")
	snapshotID := fs.String("snapshot-id", "", "snapshot id written at run end")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadTrainConfig(*configPath)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overrideTrainConfig(cfg, set, overrides{
		dataPath:     *dataPath,
		predictField: *predictField,
		classify:     *classify,
		popSize:      *popSize,
		maxParents:   *maxParents,
		mutation:     *mutation,
		goal:         *goal,
		modelName:    *modelName,
		modelConfig:  *modelConfig,
		seed:         *seed,
		duration:     *duration,
		storeKind:    *storeKind,
		runID:        *runID,
		resume:       *resume,
		snapshotID:   *snapshotID,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := dataset.LoadCSV(cfg.Data.Path, dataset.Options{
		PredictField: cfg.Data.PredictField,
		Classify:     cfg.Data.Classify,
	})
	if err != nil {
		return err
	}
	cfg.Training.InputCount = ds.InputCount()
	cfg.Training.OutputCount = ds.OutputCount()

	store, err := storage.NewStore(cfg.Store.Backend, storePath(cfg, *dbPath))
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	pctx := platform.NewContext(platform.Config{Store: store})
	if err := pctx.Init(ctx); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Printf("training model=%s pop=%d rows=%d goal=%s\n",
		cfg.Training.ModelName, cfg.Training.PopulationSize, len(ds.Inputs), cfg.Training.Goal)

	result, err := pctx.RunTraining(runCtx, platform.RunRequest{
		RunID:            cfg.Run.ID,
		Training:         &cfg.Training,
		Inputs:           ds.Inputs,
		Ideals:           ds.Ideals,
		Seed:             cfg.Seed,
		Duration:         cfg.Run.TrainDuration(),
		ResumeSnapshotID: cfg.Run.ResumeSnapshot,
		SnapshotID:       cfg.Run.SnapshotID,
		Progress: func(operationCount int64, bestScore float64) {
			fmt.Printf("ops=%s best=%.6f\n", humanize.Comma(operationCount), bestScore)
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished: ops=%s best=%.6f snapshot=%s\n",
		result.RunID, humanize.Comma(result.OperationCount), result.BestScore, result.SnapshotID)
	return nil
}

func runEval(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evorbf.db", "sqlite database path")
	snapshotID := fs.String("snapshot", "", "snapshot id to evaluate")
	dataPath := fs.String("data", "", "CSV data path")
	predictField := fs.String("predict", "", "predict column name")
	classify := fs.Bool("classify", false, "one-of-n encode the predict column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snapshotID == "" {
		return usageError("eval requires -snapshot")
	}
	if *dataPath == "" {
		return usageError("eval requires -data")
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	snapshot, ok, err := store.GetSnapshot(ctx, *snapshotID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("snapshot not found: %s", *snapshotID)
	}

	ds, err := dataset.LoadCSV(*dataPath, dataset.Options{
		PredictField: *predictField,
		Classify:     *classify,
	})
	if err != nil {
		return err
	}

	score, err := scoreSnapshotBest(snapshot, ds)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot=%s rows=%d score=%.6f\n", *snapshotID, len(ds.Inputs), score)
	return nil
}

// scoreSnapshotBest re-initializes the snapshot's model against the supplied
// dataset and scores the best stored genome. The genome length is checked
// against the re-derived layout: a dataset whose shape differs from the
// training shape is a usage error, not a decode panic.
func scoreSnapshotBest(snapshot model.PopulationSnapshot, ds *dataset.Dataset) (float64, error) {
	if len(snapshot.Genomes) == 0 {
		return 0, fmt.Errorf("snapshot %s holds no genomes", snapshot.ID)
	}
	if snapshot.BestIndex < 0 || snapshot.BestIndex >= len(snapshot.Genomes) {
		return 0, fmt.Errorf("snapshot %s best index %d out of range", snapshot.ID, snapshot.BestIndex)
	}

	training := snapshot.Config
	training.InputCount = ds.InputCount()
	training.OutputCount = ds.OutputCount()
	fitModel, err := fitness.Resolve(training.ModelName)
	if err != nil {
		return 0, err
	}
	if err := fitModel.Init(&training, training.ModelConfig); err != nil {
		return 0, err
	}

	best := snapshot.Genomes[snapshot.BestIndex]
	if len(best.Genes) != fitModel.GenomeSize() {
		return 0, fmt.Errorf("snapshot genome has %d genes but model %s expects %d for a %d-input %d-output dataset",
			len(best.Genes), training.ModelName, fitModel.GenomeSize(), training.InputCount, training.OutputCount)
	}
	return fitModel.Score(&best, ds.Inputs, ds.Ideals), nil
}

func runSnapshots(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evorbf.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	ids, err := store.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evorbf.db", "sqlite database path")
	runID := fs.String("run-id", "", "run identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("summary requires -run-id")
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	summary, ok, err := store.GetRunSummary(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run summary not found: %s", *runID)
	}

	fmt.Printf("run=%s model=%s ops=%s best=%.6f snapshot=%s\n",
		summary.RunID, summary.ModelName, humanize.Comma(summary.OperationCount), summary.BestScore, summary.SnapshotID)
	return nil
}

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range fitness.List() {
		fmt.Println(name)
	}
	return nil
}

func storePath(cfg *config.Config, flagPath string) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return flagPath
}

func usageError(msg string) error {
	return fmt.Errorf(`%s

usage:
  evorbfctl train     -config run.yaml | -data file.csv -predict column [flags]
  evorbfctl eval      -snapshot id -data file.csv -predict column [flags]
  evorbfctl snapshots [flags]
  evorbfctl summary   -run-id id [flags]
  evorbfctl models`, msg)
}
