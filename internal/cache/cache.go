// cache реализует storage.KeyValue поверх Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/tokenauth/internal/storage"

	"github.com/redis/go-redis/v9"
)

// RedisCache — строковое key-value хранилище с TTL.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	const op = "cache.NewRedisCache"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisCache{rdb: rdb}, nil
}

// NewFromClient оборачивает уже созданный клиент.
func NewFromClient(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// SetIfAbsent выполняет SET key value NX EX ttl.
func (c *RedisCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	const op = "cache.SetIfAbsent"

	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// Get возвращает значение ключа; redis.Nil трактуется как отсутствие.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "cache.Get"

	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return v, true, nil
}

// Delete удаляет ключ. DEL по отсутствующему ключу не ошибка.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	const op = "cache.Delete"

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Ping проверяет доступность Redis (readiness).
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (c *RedisCache) Close() error { return c.rdb.Close() }

var _ storage.KeyValue = (*RedisCache)(nil)
