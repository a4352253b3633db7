package cursorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "runbridge:cursor:"

// RedisStore keeps cursors as plain string values in Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

// DialRedis parses a redis:// URL, applies pool settings and verifies the connection.
func DialRedis(ctx context.Context, url string, maxRetries, poolSize int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if maxRetries > 0 {
		opts.MaxRetries = maxRetries
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, s.cursorKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load cursor: %w", err)
	}
	return value, nil
}

func (s *RedisStore) Save(ctx context.Context, key, cursor string) error {
	if err := s.redis.Set(ctx, s.cursorKey(key), cursor, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := s.redis.Del(ctx, s.cursorKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete cursor: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

func (s *RedisStore) cursorKey(key string) string {
	return redisKeyPrefix + key
}
