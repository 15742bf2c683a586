package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr:     getEnvOr("REDIS_HOST", "localhost") + ":" + getEnvOr("REDIS_PORT", "6379"),
		Password: getEnvOr("REDIS_PASSWORD", "secret_redis_pass_local"),
		DB:       2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("Skipping Redis integration test: %v", err)
	}

	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestCachedGoalRepository_Integration(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()

	store := NewMemoryStore()
	repo := NewCachedGoalRepository(store.Goals(), rdb)

	goal, err := domain.NewGoal("user-1", domain.GoalParams{Title: "Learn Go"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, goal))

	t.Run("List populates the cache", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)

		exists, err := rdb.Exists(ctx, "goals:user-1").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		ttl, err := rdb.TTL(ctx, "goals:user-1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 29*time.Minute)
	})

	t.Run("Writes behind the cache are served stale until invalidated", func(t *testing.T) {
		other, _ := domain.NewGoal("user-1", domain.GoalParams{Title: "Bypass"})
		require.NoError(t, store.Goals().Create(ctx, other))

		list, err := repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repo.Delete(ctx, other.ID))
		list, err = repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.Equal(t, goal.ID, list[0].ID)
	})

	t.Run("SaveProgress invalidates", func(t *testing.T) {
		got, err := repo.GetByID(ctx, goal.ID)
		require.NoError(t, err)
		events, err := got.ApplyProgress(domain.ProgressUpdate{Progress: ptr(40)}, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.SaveProgress(ctx, got, events))

		list, err := repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 40, list[0].Progress)
	})

	t.Run("Archive invalidates both lists", func(t *testing.T) {
		archived, err := repo.ListArchived(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, archived)

		got, err := repo.GetByID(ctx, goal.ID)
		require.NoError(t, err)
		rec, err := got.Archive("start smaller", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Archive(ctx, rec))

		archived, err = repo.ListArchived(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, archived, 1)

		list, err := repo.ListByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Corrupted entries fall back to the store", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, "goals:user-2", "{not json", time.Minute).Err())

		list, err := repo.ListByUserID(ctx, "user-2")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
