package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reelpick:prefs:"

// RedisStore keeps preferences in Redis with an optional expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedis parses url, connects, and pings.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps client. A zero ttl keeps values forever. The client
// lifecycle stays with the caller.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(clientID, name string) string {
	return redisKeyPrefix + clientID + ":" + name
}

func (s *RedisStore) Get(ctx context.Context, clientID, name string) ([]byte, error) {
	v, err := s.client.Get(ctx, redisKey(clientID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, clientID, name string, value []byte) error {
	if err := s.client.Set(ctx, redisKey(clientID, name), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, clientID, name string) error {
	if err := s.client.Del(ctx, redisKey(clientID, name)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
