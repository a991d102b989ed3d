package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func setupRunStorage(t *testing.T) interfaces.RunStorage {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRunStorage(db, logger)
}

func registryRun(id string, status models.RunStatus, age time.Duration) *models.ScrapeRun {
	now := time.Now()
	return &models.ScrapeRun{
		ID:         id,
		Status:     status,
		ItemCount:  100,
		BatchCount: 2,
		ChunkSize:  50,
		CreatedAt:  now.Add(-age),
		UpdatedAt:  now.Add(-age),
		ExpiresAt:  now.Add(24*time.Hour - age),
	}
}

func TestRunStorage_SaveAndGet(t *testing.T) {
	storage := setupRunStorage(t)
	ctx := context.Background()

	run := registryRun("run_abc123", models.RunStatusPending, 0)
	run.Outcomes = []models.BatchOutcome{
		{Number: 1, Status: models.BatchStatusCompleted, AccountRow: 2},
	}

	require.NoError(t, storage.SaveRun(ctx, run))

	got, err := storage.GetRun(ctx, "run_abc123")
	require.NoError(t, err)
	assert.Equal(t, "run_abc123", got.ID)
	assert.Equal(t, models.RunStatusPending, got.Status)
	assert.Equal(t, 100, got.ItemCount)
	assert.Equal(t, 2, got.BatchCount)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, models.BatchStatusCompleted, got.Outcomes[0].Status)

	// Upsert semantics: saving again overwrites in place
	run.Status = models.RunStatusCompleted
	run.SuccessfulBatches = 2
	require.NoError(t, storage.SaveRun(ctx, run))

	got, err = storage.GetRun(ctx, "run_abc123")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.SuccessfulBatches)

	count, err := storage.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunStorage_GetRun_NotFound(t *testing.T) {
	storage := setupRunStorage(t)

	_, err := storage.GetRun(context.Background(), "run_missing")
	assert.ErrorIs(t, err, interfaces.ErrRunNotFound)
}

func TestRunStorage_SaveRun_RequiresID(t *testing.T) {
	storage := setupRunStorage(t)

	err := storage.SaveRun(context.Background(), &models.ScrapeRun{})
	assert.Error(t, err)
}

func TestRunStorage_ListRuns(t *testing.T) {
	storage := setupRunStorage(t)
	ctx := context.Background()

	// Oldest first so newest-first ordering is meaningful
	ages := []time.Duration{40 * time.Minute, 30 * time.Minute, 20 * time.Minute, 10 * time.Minute}
	ids := []string{"run_1", "run_2", "run_3", "run_4"}
	for i, id := range ids {
		require.NoError(t, storage.SaveRun(ctx, registryRun(id, models.RunStatusCompleted, ages[i])))
	}

	runs, err := storage.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_4", runs[0].ID)
	assert.Equal(t, "run_3", runs[1].ID)

	runs, err = storage.ListRuns(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_2", runs[0].ID)
	assert.Equal(t, "run_1", runs[1].ID)

	// No limit returns everything
	runs, err = storage.ListRuns(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestRunStorage_DeleteExpired(t *testing.T) {
	storage := setupRunStorage(t)
	ctx := context.Background()

	now := time.Now()

	expired1 := registryRun("run_old_1", models.RunStatusCompleted, 0)
	expired1.ExpiresAt = now.Add(-2 * time.Hour)
	expired2 := registryRun("run_old_2", models.RunStatusFailed, 0)
	expired2.ExpiresAt = now.Add(-1 * time.Hour)
	fresh := registryRun("run_fresh", models.RunStatusCompleted, 0)
	fresh.ExpiresAt = now.Add(12 * time.Hour)

	require.NoError(t, storage.SaveRun(ctx, expired1))
	require.NoError(t, storage.SaveRun(ctx, expired2))
	require.NoError(t, storage.SaveRun(ctx, fresh))

	deleted, err := storage.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = storage.GetRun(ctx, "run_old_1")
	assert.ErrorIs(t, err, interfaces.ErrRunNotFound)

	got, err := storage.GetRun(ctx, "run_fresh")
	require.NoError(t, err)
	assert.Equal(t, "run_fresh", got.ID)

	// Second sweep finds nothing
	deleted, err = storage.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}
