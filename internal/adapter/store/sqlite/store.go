package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/lintbot/internal/store"
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

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
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
	-- One row per completed review pass
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		issues INTEGER NOT NULL,
		posted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	-- Newest handled event ID per watched repository
	CREATE TABLE IF NOT EXISTS watch_cursor (
		repository TEXT PRIMARY KEY,
		event_id INTEGER NOT NULL
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores one completed review pass.
func (s *Store) RecordRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, repository, number, head_sha, issues, posted, skipped, outcome, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Repository,
		run.Number,
		run.HeadSHA,
		run.Issues,
		run.Posted,
		run.Skipped,
		run.Outcome,
		run.Timestamp.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, repository, number, head_sha, issues, posted, skipped, outcome, timestamp
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&run.Repository,
			&run.Number,
			&run.HeadSHA,
			&run.Issues,
			&run.Posted,
			&run.Skipped,
			&run.Outcome,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// LoadCursor retrieves the stored event cursor for a repository. A
// repository without a cursor yields zero, not an error.
func (s *Store) LoadCursor(ctx context.Context, repository string) (int64, error) {
	query := `SELECT event_id FROM watch_cursor WHERE repository = ?`

	var id int64
	err := s.db.QueryRowContext(ctx, query, repository).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}

	return id, nil
}

// SaveCursor stores the event cursor for a repository, replacing any
// previous value.
func (s *Store) SaveCursor(ctx context.Context, repository string, id int64) error {
	query := `
		INSERT INTO watch_cursor (repository, event_id)
		VALUES (?, ?)
		ON CONFLICT(repository) DO UPDATE SET event_id = excluded.event_id
	`

	_, err := s.db.ExecContext(ctx, query, repository, id)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
