package ports

import (
	"context"

	"enzclass/domain/core"
	"enzclass/domain/run"
)

// RunLedger provides append-only persistence for run records. Writing is
// the only mutation; records are read back whole for review and replay.
type RunLedger interface {
	StoreRun(ctx context.Context, rec *run.Record) error
	GetRun(ctx context.Context, id core.RunID) (*run.Record, error)
	ListRuns(ctx context.Context, limit int) ([]*run.Record, error)
}
