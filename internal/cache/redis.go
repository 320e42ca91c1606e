package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/models"
	"todoapp/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const statsKeyPrefix = "todos:stats:"

// NewClient connects to REDIS_URL. Returns nil, nil when Redis is not configured.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error(ctx, "Redis ping failed", "error", err)
	} else {
		logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	}
	return client, nil
}

// StatsCache is a cache-aside store for per-user todo statistics.
// A nil client disables caching; every call then goes to the loader.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewStatsCache wraps client. client may be nil.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (c *StatsCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks Redis. A disabled cache is always healthy.
func (c *StatsCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Key returns the cache key for one user's stats.
func Key(userID uint) string {
	return statsKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Get reads cached stats. Returns false on miss or error.
func (c *StatsCache) Get(ctx context.Context, userID uint) (models.TodoStats, bool) {
	if !c.Enabled() {
		return models.TodoStats{}, false
	}
	b, err := c.client.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TodoStats{}, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get stats failed", "error", err)
		return models.TodoStats{}, false
	}
	var stats models.TodoStats
	if err := json.Unmarshal(b, &stats); err != nil {
		logger.Debug(ctx, "Redis unmarshal stats failed", "error", err)
		return models.TodoStats{}, false
	}
	return stats, true
}

// Set writes stats with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, userID uint, stats models.TodoStats) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(stats)
	if err != nil {
		logger.Debug(ctx, "Marshal stats for cache failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, Key(userID), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set stats failed", "error", err)
	}
}

// Invalidate deletes the user's stats so the next read goes to the database.
func (c *StatsCache) Invalidate(ctx context.Context, userID uint) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, Key(userID)).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate stats failed", "error", err)
	}
}

// GetOrLoad returns cached stats, or calls load once for all concurrent
// callers of the same user and caches the result.
func (c *StatsCache) GetOrLoad(ctx context.Context, userID uint, load func(context.Context) (models.TodoStats, error)) (models.TodoStats, error) {
	if stats, ok := c.Get(ctx, userID); ok {
		return stats, nil
	}
	v, err, _ := c.group.Do(Key(userID), func() (interface{}, error) {
		stats, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(context.WithoutCancel(ctx), userID, stats)
		return stats, nil
	})
	if err != nil {
		return models.TodoStats{}, err
	}
	return v.(models.TodoStats), nil
}
