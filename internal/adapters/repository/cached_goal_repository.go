package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

const goalListTTL = 30 * time.Minute

var _ domain.GoalRepository = (*CachedGoalRepository)(nil)

// CachedGoalRepository keeps per-user goal lists in Redis in front of another
// GoalRepository. Cache failures are logged and fall through to the store.
type CachedGoalRepository struct {
	next   domain.GoalRepository
	cache  *redis.Client
	logger *slog.Logger
}

func NewCachedGoalRepository(next domain.GoalRepository, cache *redis.Client) *CachedGoalRepository {
	return &CachedGoalRepository{
		next:   next,
		cache:  cache,
		logger: slog.Default().With("component", "goal_cache"),
	}
}

func (r *CachedGoalRepository) listKey(userID string) string {
	return fmt.Sprintf("goals:%s", userID)
}

func (r *CachedGoalRepository) archiveKey(userID string) string {
	return fmt.Sprintf("goals:archived:%s", userID)
}

func (r *CachedGoalRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func cachedList[T any](ctx context.Context, r *CachedGoalRepository, key string, load func() ([]*T, error)) ([]*T, error) {
	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var items []*T
		if err := json.Unmarshal([]byte(val), &items); err == nil {
			return items, nil
		}
		r.logger.Warn("corrupted cache entry, dropping it", "key", key)
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed", "key", key, "error", err)
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if setErr := r.cache.Set(ctx, key, data, goalListTTL).Err(); setErr != nil {
			r.logger.Warn("cache write failed", "key", key, "error", setErr)
		}
	}
	return items, nil
}

func (r *CachedGoalRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return cachedList(ctx, r, r.listKey(userID), func() ([]*domain.Goal, error) {
		return r.next.ListByUserID(ctx, userID)
	})
}

func (r *CachedGoalRepository) ListArchived(ctx context.Context, userID string) ([]*domain.ArchiveRecord, error) {
	return cachedList(ctx, r, r.archiveKey(userID), func() ([]*domain.ArchiveRecord, error) {
		return r.next.ListArchived(ctx, userID)
	})
}

func (r *CachedGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedGoalRepository) ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.Goal, error) {
	return r.next.ListActiveIdleSince(ctx, cutoff)
}

func (r *CachedGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if err := r.next.Create(ctx, goal); err != nil {
		return err
	}
	r.invalidate(ctx, r.listKey(goal.UserID))
	return nil
}

func (r *CachedGoalRepository) SaveProgress(ctx context.Context, goal *domain.Goal, events []*domain.ActivityEvent) error {
	if err := r.next.SaveProgress(ctx, goal, events); err != nil {
		return err
	}
	r.invalidate(ctx, r.listKey(goal.UserID))
	return nil
}

func (r *CachedGoalRepository) Delete(ctx context.Context, id string) error {
	goal, err := r.next.GetByID(ctx, id)
	if err == nil && goal != nil {
		defer r.invalidate(ctx, r.listKey(goal.UserID))
	}

	return r.next.Delete(ctx, id)
}

func (r *CachedGoalRepository) Archive(ctx context.Context, rec *domain.ArchiveRecord) error {
	if err := r.next.Archive(ctx, rec); err != nil {
		return err
	}
	r.invalidate(ctx, r.listKey(rec.UserID), r.archiveKey(rec.UserID))
	return nil
}
