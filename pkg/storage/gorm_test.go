package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/entrybatch/pkg/core"
)

// newTestStorage creates a fresh in-memory SQLite storage instance for each test.
// A single connection keeps every query on the same in-memory database.
func newTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	s, err := NewGormStorageWithPool(openMemoryDB(t), SQLitePool())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	return s
}

func TestGormStorage_IsSQLite(t *testing.T) {
	s := newTestStorage(t)

	assert.True(t, s.IsSQLite())
	assert.NotNil(t, s.DB())
	assert.False(t, NewGormStorage(nil).IsSQLite(), "nil db should not claim SQLite")
}

func TestGormStorage_CreateAndGetRun(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := &core.Run{Source: "batch.csv", Total: 4}
	require.NoError(t, s.CreateRun(ctx, run))
	assert.NotEmpty(t, run.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "batch.csv", got.Source)
	assert.Equal(t, core.StateIdle, got.State)
	assert.Equal(t, 4, got.Total)
}

func TestGormStorage_GetRun_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestGormStorage_UpdateRunState(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.CreateRun(ctx, &core.Run{ID: "run-1"}))

	report := core.NewBatchReport("run-1", 3)
	report.StartedAt = time.Now().Add(-time.Minute)
	report.Add(core.RowResult{Index: 0, Status: core.StatusSucceeded})
	report.Add(core.RowResult{Index: 1, Status: core.StatusFailed, Detail: "fill_detail: field missing"})
	report.Add(core.RowResult{Index: 2, Status: core.StatusSkipped})

	require.NoError(t, s.UpdateRunState(ctx, "run-1", core.StatePaused, report))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatePaused, got.State)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, "fill_detail: field missing", got.LastError)
	require.NotNil(t, got.StartedAt)
	assert.Nil(t, got.FinishedAt)

	report.Cancelled = true
	require.NoError(t, s.UpdateRunState(ctx, "run-1", core.StateCancelled, report))

	got, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	assert.NotNil(t, got.FinishedAt)
}

func TestGormStorage_UpdateRunState_NotFound(t *testing.T) {
	s := newTestStorage(t)

	err := s.UpdateRunState(context.Background(), "missing", core.StateRunning, nil)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestGormStorage_RowOutcomes(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, o := range []*core.RowOutcome{
		{RunID: "run-1", RowIndex: 2, Status: core.StatusSkipped, Detail: "transient failure after 3 attempts"},
		{RunID: "run-1", RowIndex: 0, Status: core.StatusSucceeded, Identity: "D-1"},
		{RunID: "run-1", RowIndex: 1, Status: core.StatusSucceeded, Chained: true, Mode: core.ModeAlternative},
		{RunID: "run-2", RowIndex: 0, Status: core.StatusFailed, Detail: "bad\x00detail"},
	} {
		require.NoError(t, s.SaveRowOutcome(ctx, o))
		assert.NotEmpty(t, o.ID)
	}

	all, err := s.GetRowOutcomes(ctx, "run-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].RowIndex)
	assert.Equal(t, 1, all[1].RowIndex)
	assert.Equal(t, 2, all[2].RowIndex)

	res := all[1].Result()
	assert.True(t, res.Chained)
	assert.Equal(t, core.ModeAlternative, res.Mode)

	skipped, err := s.GetRowOutcomes(ctx, "run-1", core.StatusSkipped)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, 2, skipped[0].RowIndex)

	failed, err := s.GetRowOutcomes(ctx, "run-2", core.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "baddetail", failed[0].Detail)
}

func TestGormStorage_ListRuns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, s.CreateRun(ctx, &core.Run{ID: id}))
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)

	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.CreateRun(ctx, &core.Run{ID: "run-1"}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
}
