package store

import (
	"context"

	"github.com/bkyoung/lintbot/internal/store"
	"github.com/bkyoung/lintbot/internal/usecase/review"
)

// Bridge adapts store.Store to the narrow ports the usecases define
// (review.RunRecorder and watch.CursorStore). This avoids circular
// dependencies between packages.
type Bridge struct {
	store store.Store
}

// NewBridge creates a new store adapter.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// RecordRun converts and saves a pass summary, assigning its run ID.
func (b *Bridge) RecordRun(ctx context.Context, run review.Run) error {
	record := store.Run{
		RunID:      store.GenerateRunID(run.Timestamp, run.Repository, run.Number),
		Repository: run.Repository,
		Number:     run.Number,
		HeadSHA:    run.HeadSHA,
		Issues:     run.Issues,
		Posted:     run.Posted,
		Skipped:    run.Skipped,
		Outcome:    run.Outcome,
		Timestamp:  run.Timestamp,
	}
	return b.store.RecordRun(ctx, record)
}

// LoadCursor retrieves the event cursor for a repository.
func (b *Bridge) LoadCursor(ctx context.Context, repository string) (int64, error) {
	return b.store.LoadCursor(ctx, repository)
}

// SaveCursor stores the event cursor for a repository.
func (b *Bridge) SaveCursor(ctx context.Context, repository string, id int64) error {
	return b.store.SaveCursor(ctx, repository, id)
}

// Close closes the underlying store.
func (b *Bridge) Close() error {
	return b.store.Close()
}
