// Package sqlite implements the run-history store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/bkyoung/coverage-commenter/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per pipeline invocation
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		base_ref TEXT NOT NULL,
		head_ref TEXT NOT NULL,
		all_rate REAL,
		all_statements INTEGER NOT NULL DEFAULT 0,
		changed_rate REAL,
		changed_statements INTEGER NOT NULL DEFAULT 0,
		posted INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new pipeline run. Non-finite rates are stored as NULL.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, repository, pull_number, base_ref, head_ref,
			all_rate, all_statements, changed_rate, changed_statements, posted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Repository,
		run.PullNumber,
		run.BaseRef,
		run.HeadRef,
		nullableRate(run.AllRate),
		run.AllStatements,
		nullableRate(run.ChangedRate),
		run.ChangedStatements,
		run.Posted,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// RecentRuns returns the most recent runs for a repository, newest first.
// An empty repository matches all repositories.
func (s *Store) RecentRuns(ctx context.Context, repository string, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, timestamp, repository, pull_number, base_ref, head_ref,
			all_rate, all_statements, changed_rate, changed_statements, posted
		FROM runs
		WHERE (? = '' OR repository = ?)
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, repository, repository, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var ts int64
		var allRate, changedRate sql.NullFloat64
		if err := rows.Scan(
			&run.RunID,
			&ts,
			&run.Repository,
			&run.PullNumber,
			&run.BaseRef,
			&run.HeadRef,
			&allRate,
			&run.AllStatements,
			&changedRate,
			&run.ChangedStatements,
			&run.Posted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Timestamp = time.Unix(ts, 0).UTC()
		run.AllRate = rateOrNaN(allRate)
		run.ChangedRate = rateOrNaN(changedRate)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// nullableRate converts a non-finite rate into a SQL NULL.
func nullableRate(rate float64) sql.NullFloat64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: rate, Valid: true}
}

func rateOrNaN(rate sql.NullFloat64) float64 {
	if !rate.Valid {
		return math.NaN()
	}
	return rate.Float64
}
