package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisResetStore keeps password reset challenges in Redis with a TTL.
type RedisResetStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisResetStore(client *redis.Client, timeout time.Duration) *RedisResetStore {
	return &RedisResetStore{client: client, timeout: timeout}
}

func resetKey(email string) string {
	return fmt.Sprintf("password_reset:%s", email)
}

func (s *RedisResetStore) Save(ctx context.Context, email, token string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Set(ctx, resetKey(email), token, ttl).Err()
}

func (s *RedisResetStore) Get(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.client.Get(ctx, resetKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (s *RedisResetStore) Delete(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Del(ctx, resetKey(email)).Err()
}
