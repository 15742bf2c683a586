package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options selects the Redis server shared by the goal cache, the rate limiter
// and the reminder seen-set.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Attempts is the number of pings tried before giving up. Zero means one.
	Attempts int
}

// NewRedisClient connects and pings the server, backing off between failed
// attempts. The returned client is closed on failure.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	attempts := max(opts.Attempts, 1)
	backoff := 250 * time.Millisecond

	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return rdb, nil
		}
		if i == attempts {
			break
		}

		slog.Warn("redis ping failed, retrying", "component", "cache", "addr", opts.Addr, "attempt", i, "error", err)
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
}
