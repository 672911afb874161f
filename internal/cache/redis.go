package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments running more
// than one instance. Entries are JSON-encoded and expire server-side
// via SET with TTL.
type RedisStore[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies connectivity.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore[T]) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
