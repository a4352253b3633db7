package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) (*PostgresRepository, func()) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("runbridge_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := Migrate(connStr, "file://../../migrations"); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		repo.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

func TestPostgresRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	run := &models.DownstreamRun{
		JobName: "proxy_extract",
		Status:  "SUCCESS",
		Tags:    map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "extract"},
	}
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "proxy_extract", got.JobName)
	assert.Equal(t, run.Tags, got.Tags)

	assert.ErrorIs(t, repo.CreateRun(ctx, &models.DownstreamRun{ID: run.ID}), ErrRunExists)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPostgresRepository_FindRuns(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	seed := []*models.DownstreamRun{
		{ID: "a", CreatedAt: base, Tags: map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "extract"}},
		{ID: "b", CreatedAt: base.Add(time.Minute), Tags: map[string]string{models.TagDagRunID: "run-1", models.TagTaskID: "load"}},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute), Tags: map[string]string{models.TagDagRunID: "run-2"}},
	}
	for _, run := range seed {
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	runs, err := repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "run-1"}, DefaultFindLimit)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "load", runs[0].Tags[models.TagTaskID])

	runs, err = repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "run-1"}, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = repo.FindRuns(ctx, map[string]string{models.TagDagRunID: "nope"}, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
