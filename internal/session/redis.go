package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each namespace in one Redis hash. Every write refreshes the
// hash TTL, so idle sessions expire as a whole.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "ui:", ttl: ttl}
}

func (s *RedisStore) key(ns string) string {
	return s.prefix + ns
}

func (s *RedisStore) Get(ctx context.Context, ns, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key(ns), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, ns, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(ns), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(ns), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, ns string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key(ns), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, ns string) error {
	if err := s.client.Del(ctx, s.key(ns)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Healthy reports whether Redis answers a ping.
func (s *RedisStore) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}
