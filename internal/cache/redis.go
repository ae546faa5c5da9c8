package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "vidtube:password-reset:"

// RedisResetStore keeps reset tokens in Redis with a server-side expiry.
type RedisResetStore struct {
	client redis.UniversalClient
}

// NewRedisResetStore wraps an existing client.
func NewRedisResetStore(client redis.UniversalClient) *RedisResetStore {
	return &RedisResetStore{client: client}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisResetStore) Put(ctx context.Context, key, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKeyPrefix+key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token: %w", err)
	}
	return nil
}

// Take uses GETDEL so a token can be redeemed once even under concurrent requests.
func (s *RedisResetStore) Take(ctx context.Context, key string) (string, bool, error) {
	userID, err := s.client.GetDel(ctx, resetKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel reset token: %w", err)
	}
	return userID, true, nil
}
