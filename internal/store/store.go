package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for run history and the
// watch cursor.
type Store interface {
	// Run history
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Watch cursor
	LoadCursor(ctx context.Context, repository string) (int64, error)
	SaveCursor(ctx context.Context, repository string, id int64) error

	// Utility
	Close() error
}

// Run represents a single completed review pass.
type Run struct {
	RunID      string
	Repository string
	Number     int
	HeadSHA    string
	Issues     int
	Posted     int
	Skipped    int
	Outcome    string
	Timestamp  time.Time
}
