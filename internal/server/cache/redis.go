package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnhub/user-service/internal/logging"
)

// RedisCache stores JSON-serialized entries in Redis. TTLs are enforced by
// the store itself via SET EX.
type RedisCache struct {
	rdb    *redis.Client
	logger logging.Logger
}

// NewRedisCache connects to the Redis instance described by url
// (e.g. "redis://localhost:6379"). The connection is verified with a ping so
// misconfiguration fails at startup rather than degrading silently forever.
func NewRedisCache(ctx context.Context, url string, logger logging.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{rdb: rdb, logger: logger.With("module", "cache")}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(ctx, "cache get failed", "key", key, "error", err.Error())
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn(ctx, "cache entry malformed", "key", key, "error", err.Error())
		return false
	}

	c.logger.Debug(ctx, "cache hit", "key", key)
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn(ctx, "cache set marshal failed", "key", key, "error", err.Error())
		return
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn(ctx, "cache set failed", "key", key, "error", err.Error())
	}
}

func (c *RedisCache) SetIndexed(ctx context.Context, index, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn(ctx, "cache set marshal failed", "key", key, "error", err.Error())
		return
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, index, key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(ctx, "cache set failed", "key", key, "index", index, "error", err.Error())
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn(ctx, "cache invalidate failed", "key", key, "error", err.Error())
	}
}

func (c *RedisCache) InvalidateIndex(ctx context.Context, index string) {
	members, err := c.rdb.SMembers(ctx, index).Result()
	if err != nil {
		c.logger.Warn(ctx, "cache index read failed", "index", index, "error", err.Error())
		return
	}

	keys := append(members, index)
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(ctx, "cache index invalidate failed", "index", index, "error", err.Error())
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
