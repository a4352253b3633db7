package cursorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// exerciseStore runs the shared Store contract against one backend.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	cursor, err := store.Load(ctx, "airflow")
	require.NoError(t, err)
	assert.Empty(t, cursor, "missing cursor loads as empty")

	require.NoError(t, store.Save(ctx, "airflow", `{"window_start":1}`))
	cursor, err = store.Load(ctx, "airflow")
	require.NoError(t, err)
	assert.Equal(t, `{"window_start":1}`, cursor)

	require.NoError(t, store.Save(ctx, "airflow", `{"window_start":2}`))
	cursor, err = store.Load(ctx, "airflow")
	require.NoError(t, err)
	assert.Equal(t, `{"window_start":2}`, cursor, "save overwrites")

	other, err := store.Load(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other, "keys are independent")

	require.NoError(t, store.Delete(ctx, "airflow"))
	cursor, err = store.Load(ctx, "airflow")
	require.NoError(t, err)
	assert.Empty(t, cursor)

	assert.ErrorIs(t, store.Delete(ctx, "airflow"), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisStore(client)
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisStore(client)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), "airflow", "c"))
	value, err := mr.Get("runbridge:cursor:airflow")
	require.NoError(t, err)
	assert.Equal(t, "c", value)
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0", 2, 4)
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)

	_, err = DialRedis(context.Background(), "not-a-url", 0, 0)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "airflow", "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	cursor, err := reopened.Load(context.Background(), "airflow")
	require.NoError(t, err)
	assert.Equal(t, "persisted", cursor)
}
