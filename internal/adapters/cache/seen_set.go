package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenPrefix = "stale_notified:"

// RedisSeenSet deduplicates reminders across processes with SET NX.
type RedisSeenSet struct {
	rdb *redis.Client
}

func NewRedisSeenSet(rdb *redis.Client) *RedisSeenSet {
	return &RedisSeenSet{rdb: rdb}
}

func (s *RedisSeenSet) MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, seenPrefix+key, 1, ttl).Result()
}

func (s *RedisSeenSet) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, seenPrefix+key).Err()
}

// MemorySeenSet is the single-process SeenSet used when Redis is not configured.
type MemorySeenSet struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemorySeenSet() *MemorySeenSet {
	return &MemorySeenSet{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemorySeenSet) MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, k)
		}
	}

	if _, ok := s.expires[key]; ok {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *MemorySeenSet) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expires, key)
	return nil
}
