package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/pkg/logger"
)

// RedisDB wraps a Redis client
type RedisDB struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        100,
		MinIdleConns:    10,
		PoolTimeout:     4 * time.Second,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{Client: client}, nil
}

// Close closes the Redis connection
func (db *RedisDB) Close() error {
	if db.Client != nil {
		return db.Client.Close()
	}
	return nil
}

// Get gets a value by key
func (db *RedisDB) Get(ctx context.Context, key string) (string, error) {
	return db.Client.Get(ctx, key).Result()
}

// Set sets a value with optional expiration
func (db *RedisDB) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return db.Client.Set(ctx, key, value, expiration).Err()
}

// Del deletes one or more keys
func (db *RedisDB) Del(ctx context.Context, keys ...string) error {
	return db.Client.Del(ctx, keys...).Err()
}

// Incr increments a key
func (db *RedisDB) Incr(ctx context.Context, key string) (int64, error) {
	return db.Client.Incr(ctx, key).Result()
}

// Expire sets expiration on a key
func (db *RedisDB) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return db.Client.Expire(ctx, key, expiration).Err()
}

// TTL gets the remaining time to live of a key
func (db *RedisDB) TTL(ctx context.Context, key string) (time.Duration, error) {
	return db.Client.TTL(ctx, key).Result()
}

// Pipeline returns a pipeline for batch operations
func (db *RedisDB) Pipeline() redis.Pipeliner {
	return db.Client.Pipeline()
}

// RateLimit implements a fixed window rate limiter using Redis
func (db *RedisDB) RateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := db.Client.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, err
	}

	count := incr.Val()
	if count > limit {
		return false, limit - count, nil
	}

	return true, limit - count, nil
}

// Cache implements a simple cache with TTL, used for dashboard stats
type Cache struct {
	redis *RedisDB
	ttl   time.Duration
}

// NewCache creates a new cache
func NewCache(redis *RedisDB, ttl time.Duration) *Cache {
	return &Cache{
		redis: redis,
		ttl:   ttl,
	}
}

// Get gets a cached value
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.redis.Get(ctx, key)
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return val, true
}

// Set sets a cached value
func (c *Cache) Set(ctx context.Context, key, value string) error {
	return c.redis.Set(ctx, key, value, c.ttl)
}

// Delete deletes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.redis.Del(ctx, key)
}
