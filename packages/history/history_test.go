package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/assertions"
	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	storyhttp "github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func suite(started time.Time) *runner.SuiteResult {
	return &runner.SuiteResult{
		RunID:     uuid.New(),
		BaseURL:   "http://localhost:5080",
		StartedAt: started,
		Duration:  250 * time.Millisecond,
		Passed:    1,
		Failed:    2,
		Skipped:   1,
		Results: []*runner.ScenarioResult{
			{Name: runner.CreateStory, Passed: true, Duration: 20 * time.Millisecond,
				Response: &storyhttp.Response{StatusCode: 201}},
			{Name: runner.EditStory, Error: runner.ErrMissingStoryID},
			{Name: runner.ListStories, Response: &storyhttp.Response{StatusCode: 200},
				Assertions: []*assertions.Result{
					{Passed: true},
					{Passed: false, Message: "expected at least 1 items, got 0"},
				}},
			{Name: runner.DeleteStory, Skipped: true, SkipReason: runner.SkipBail},
		},
	}
}

func TestStore_RecordAndGet(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	result := suite(time.Now())

	require.NoError(t, store.Record(ctx, result))

	run, err := store.Get(ctx, result.RunID)
	require.NoError(t, err)

	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "http://localhost:5080", run.BaseURL)
	assert.Equal(t, 250*time.Millisecond, run.Duration)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 2, run.Failed)
	assert.Equal(t, 1, run.Skipped)
	assert.WithinDuration(t, result.StartedAt, run.StartedAt, time.Second)

	require.Len(t, run.Scenarios, 4)
	assert.Equal(t, Scenario{Position: 1, Name: runner.CreateStory, Status: StatusPassed, StatusCode: 201, Duration: 20 * time.Millisecond}, run.Scenarios[0])
	assert.Equal(t, StatusFailed, run.Scenarios[1].Status)
	assert.Equal(t, runner.ErrMissingStoryID.Error(), run.Scenarios[1].Message)
	assert.Equal(t, "expected at least 1 items, got 0", run.Scenarios[2].Message)
	assert.Equal(t, StatusSkipped, run.Scenarios[3].Status)
	assert.Equal(t, runner.SkipBail, run.Scenarios[3].Message)
}

func TestStore_RecordSuiteError(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	result := &runner.SuiteResult{
		RunID:     uuid.New(),
		BaseURL:   "http://localhost:1",
		StartedAt: time.Now(),
		Error:     errors.New("opening session: no access token"),
	}

	require.NoError(t, store.Record(ctx, result))
	run, err := store.Get(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "opening session: no access token", run.Error)
	assert.Empty(t, run.Scenarios)
}

func TestStore_RecentNewestFirst(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := suite(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, r.RunID)
		require.NoError(t, store.Record(ctx, r))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Empty(t, runs[0].Scenarios)
}

func TestStore_Prune(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var oldest uuid.UUID
	for i := 0; i < 3; i++ {
		r := suite(base.Add(time.Duration(i) * time.Minute))
		if i == 0 {
			oldest = r.RunID
		}
		require.NoError(t, store.Record(ctx, r))
	}

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get(ctx, oldest)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var orphans int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scenario_results WHERE run_id = ?`, oldest.String()).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestStore_GetUnknown(t *testing.T) {
	store := openTemp(t)
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}
