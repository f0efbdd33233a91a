package storage

import (
	"context"

	"evorbf/internal/model"
)

// Store defines persistence operations for population snapshots and run
// summaries. The wire format is owned by this package; callers treat
// snapshots as opaque units.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.PopulationSnapshot, bool, error)
	ListSnapshots(ctx context.Context) ([]string, error)
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, runID string) (model.RunSummary, bool, error)
}
