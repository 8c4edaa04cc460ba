package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the redis client used for directory lookups and per-user rate
// limiting. A nil inner client degrades every call to a miss.
type Cache struct {
	rdb *redis.Client
}

func NewCache(addr, password string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return &Cache{}, err
	}
	return &Cache{rdb: rdb}, nil
}

// NewNoopCache returns a cache whose every read misses. Used when redis is
// not configured and in tests.
func NewNoopCache() *Cache {
	return &Cache{}
}

func (c *Cache) Enabled() bool {
	return c.rdb != nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, payload, expiration).Err()
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.rdb == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// CheckRateLimit increments the caller's counter and reports whether it is
// still under the limit. With redis disabled it always allows.
func (c *Cache) CheckRateLimit(ctx context.Context, userID string, limit int, duration time.Duration) (bool, error) {
	if c.rdb == nil {
		return true, nil
	}
	key := fmt.Sprintf("rate_limit:%s", userID)
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		c.rdb.Expire(ctx, key, duration)
	}

	return count <= int64(limit), nil
}
