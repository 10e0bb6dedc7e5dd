package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeAdapter "github.com/bkyoung/lintbot/internal/adapter/store"
	"github.com/bkyoung/lintbot/internal/store"
	"github.com/bkyoung/lintbot/internal/usecase/review"
	"github.com/bkyoung/lintbot/internal/usecase/watch"
)

// The bridge serves both usecase ports.
var (
	_ review.RunRecorder = (*storeAdapter.Bridge)(nil)
	_ watch.CursorStore  = (*storeAdapter.Bridge)(nil)
)

// mockStore implements store.Store for testing
type mockStore struct {
	runs    []store.Run
	cursors map[string]int64
	closed  bool
}

func newMockStore() *mockStore {
	return &mockStore{cursors: make(map[string]int64)}
}

func (m *mockStore) RecordRun(ctx context.Context, run store.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	return m.runs, nil
}

func (m *mockStore) LoadCursor(ctx context.Context, repository string) (int64, error) {
	return m.cursors[repository], nil
}

func (m *mockStore) SaveCursor(ctx context.Context, repository string, id int64) error {
	m.cursors[repository] = id
	return nil
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}

func TestBridge_RecordRun(t *testing.T) {
	mock := newMockStore()
	bridge := storeAdapter.NewBridge(mock)

	run := review.Run{
		Repository: "bkyoung/dummy",
		Number:     180,
		HeadSHA:    "headsha",
		Issues:     3,
		Posted:     2,
		Skipped:    1,
		Outcome:    "failure",
		Timestamp:  time.Date(2026, 8, 25, 14, 30, 45, 0, time.UTC),
	}
	require.NoError(t, bridge.RecordRun(context.Background(), run))

	require.Len(t, mock.runs, 1)
	record := mock.runs[0]
	assert.Equal(t, store.GenerateRunID(run.Timestamp, run.Repository, run.Number), record.RunID)
	assert.Equal(t, run.Repository, record.Repository)
	assert.Equal(t, run.Number, record.Number)
	assert.Equal(t, run.HeadSHA, record.HeadSHA)
	assert.Equal(t, run.Issues, record.Issues)
	assert.Equal(t, run.Posted, record.Posted)
	assert.Equal(t, run.Skipped, record.Skipped)
	assert.Equal(t, run.Outcome, record.Outcome)
	assert.Equal(t, run.Timestamp, record.Timestamp)
}

func TestBridge_CursorRoundTrip(t *testing.T) {
	mock := newMockStore()
	bridge := storeAdapter.NewBridge(mock)
	ctx := context.Background()

	require.NoError(t, bridge.SaveCursor(ctx, "bkyoung/dummy", 42))

	id, err := bridge.LoadCursor(ctx, "bkyoung/dummy")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestBridge_Close(t *testing.T) {
	mock := newMockStore()
	bridge := storeAdapter.NewBridge(mock)

	require.NoError(t, bridge.Close())
	assert.True(t, mock.closed)
}
