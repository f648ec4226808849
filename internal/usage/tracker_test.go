package usage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai-forge/internal/db"
	"ai-forge/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	database, err := db.NewDatabase(&db.Config{SQLitePath: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tracker := NewTracker(database.GetDB())
	require.NoError(t, tracker.Migrate())
	return tracker
}

func TestRecordAndListRuns(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		run := &models.GenerationRun{
			ID:        fmt.Sprintf("run-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Prompt:    "Create a todo app with local storage",
			Status:    models.RunStatusDone,
			Provider:  "gemini",
			FileCount: 3 + i,
		}
		require.NoError(t, tracker.RecordRun(ctx, run))
	}

	runs, err := tracker.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 5, runs[0].FileCount)

	all, err := tracker.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordRunRejectsMissingID(t *testing.T) {
	tracker := newTestTracker(t)
	assert.Error(t, tracker.RecordRun(context.Background(), &models.GenerationRun{Prompt: "x"}))
	assert.Error(t, tracker.RecordRun(context.Background(), nil))
}

func TestRecordRunDuplicateID(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	run := &models.GenerationRun{ID: "dup", Prompt: "x", Status: models.RunStatusDone}
	require.NoError(t, tracker.RecordRun(ctx, run))

	again := &models.GenerationRun{ID: "dup", Prompt: "y", Status: models.RunStatusFailed}
	assert.Error(t, tracker.RecordRun(ctx, again))
}

func TestGetSummary(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	runs := []*models.GenerationRun{
		{ID: "a", CreatedAt: now.Add(-10 * time.Minute), Prompt: "p", Status: models.RunStatusDone, FailedWrites: 1, DurationMs: 100},
		{ID: "b", CreatedAt: now.Add(-5 * time.Minute), Prompt: "p", Status: models.RunStatusFailed, FailedStage: "planning", DurationMs: 300},
		{ID: "c", CreatedAt: now.Add(-48 * time.Hour), Prompt: "p", Status: models.RunStatusDone, DurationMs: 900},
	}
	for _, r := range runs {
		require.NoError(t, tracker.RecordRun(ctx, r))
	}

	summary, err := tracker.GetSummary(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Total)
	assert.Equal(t, int64(1), summary.Done)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, int64(1), summary.FailedWrites)
	assert.InDelta(t, 200, summary.AvgDuration, 0.001)

	require.NoError(t, tracker.RecordRun(ctx, &models.GenerationRun{
		ID: "d", CreatedAt: now, Prompt: "p", Status: models.RunStatusDone,
	}))
	summary, err = tracker.GetSummary(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
}
