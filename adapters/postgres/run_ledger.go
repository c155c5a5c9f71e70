package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"enzclass/domain/core"
	"enzclass/domain/eval"
	"enzclass/domain/run"
	"enzclass/ports"
)

// runLedger implements the RunLedger port on PostgreSQL
type runLedger struct {
	db *sqlx.DB
}

// NewRunLedger creates a postgres-backed run ledger
func NewRunLedger(db *sqlx.DB) ports.RunLedger {
	return &runLedger{db: db}
}

// Migrate creates the runs table if it does not exist
func Migrate(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL,
		extractors JSONB NOT NULL,
		model_kind TEXT NOT NULL,
		seed BIGINT NOT NULL,
		train_ratio DOUBLE PRECISION NOT NULL,
		candidates INT NOT NULL,
		row_count INT NOT NULL,
		exclusions JSONB NOT NULL,
		report JSONB,
		error TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// StoreRun appends one run record
func (r *runLedger) StoreRun(ctx context.Context, rec *run.Record) error {
	extractorsJSON, err := json.Marshal(rec.Extractors)
	if err != nil {
		return fmt.Errorf("failed to marshal extractors: %w", err)
	}
	exclusionsJSON, err := json.Marshal(rec.Exclusions)
	if err != nil {
		return fmt.Errorf("failed to marshal exclusions: %w", err)
	}
	var reportJSON []byte
	if rec.Report != nil {
		reportJSON, err = json.Marshal(rec.Report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
	}

	query := `INSERT INTO runs (
		id, started_at, finished_at, source, extractors, model_kind,
		seed, train_ratio, candidates, row_count, exclusions, report, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.StartedAt, rec.FinishedAt, rec.Source, extractorsJSON, rec.ModelKind,
		rec.Seed, rec.TrainRatio, rec.Candidates, rec.Rows, exclusionsJSON, reportJSON, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to store run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun retrieves one run record by ID
func (r *runLedger) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	query := `SELECT
		id, started_at, finished_at, source, extractors, model_kind,
		seed, train_ratio, candidates, row_count, exclusions, report, COALESCE(error, '') AS error
	FROM runs WHERE id = $1`

	rec, err := scanRun(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns retrieves the most recent run records
func (r *runLedger) ListRuns(ctx context.Context, limit int) ([]*run.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT
		id, started_at, finished_at, source, extractors, model_kind,
		seed, train_ratio, candidates, row_count, exclusions, report, COALESCE(error, '') AS error
	FROM runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*run.Record
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// rowScanner covers both *sqlx.Row and *sqlx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*run.Record, error) {
	var rec run.Record
	var extractorsJSON, exclusionsJSON []byte
	var reportJSON []byte

	err := row.Scan(
		&rec.ID, &rec.StartedAt, &rec.FinishedAt, &rec.Source, &extractorsJSON, &rec.ModelKind,
		&rec.Seed, &rec.TrainRatio, &rec.Candidates, &rec.Rows, &exclusionsJSON, &reportJSON, &rec.Error,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(extractorsJSON, &rec.Extractors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extractors: %w", err)
	}
	if err := json.Unmarshal(exclusionsJSON, &rec.Exclusions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exclusions: %w", err)
	}
	if len(reportJSON) > 0 {
		var report eval.Report
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		rec.Report = &report
	}
	return &rec, nil
}
