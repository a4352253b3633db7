package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/runbridge/internal/models"
)

func TestInMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	run := &models.DownstreamRun{
		JobName: "proxy_extract",
		Status:  "SUCCESS",
		Tags:    map[string]string{models.TagDagRunID: "run-1"},
	}
	require.NoError(t, repo.CreateRun(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.JobName, got.JobName)
	assert.Equal(t, "run-1", got.Tags[models.TagDagRunID])

	// Stored copies are isolated from caller mutation.
	got.Tags[models.TagDagRunID] = "mutated"
	again, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", again.Tags[models.TagDagRunID])

	err = repo.CreateRun(ctx, &models.DownstreamRun{ID: run.ID})
	assert.ErrorIs(t, err, ErrRunExists)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestInMemoryRepository_FindRuns(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seed := []*models.DownstreamRun{
		{ID: "a", CreatedAt: base, Tags: map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "extract"}},
		{ID: "b", CreatedAt: base.Add(time.Minute), Tags: map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "load"}},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute), Tags: map[string]string{models.TagDagRunID: "run-2", models.TagTaskID: "extract"}},
		{ID: "d", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, run := range seed {
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	runs, err := repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "run-1"}, DefaultFindLimit)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID, "newest first")
	assert.Equal(t, "a", runs[1].ID)

	runs, err = repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "extract"}, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].ID)

	runs, err = repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "run-3"}, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	runs, err = repo.FindRuns(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestInMemoryRepository_FindRunsTruncatesAtLimit(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateRun(ctx, &models.DownstreamRun{
			ID:   fmt.Sprintf("run-%d", i),
			Tags: map[string]string{models.TagDagRunID: "busy"},
		}))
	}

	runs, err := repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "busy"}, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
