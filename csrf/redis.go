// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rmt:csrf:"

// RedisStore shares tokens between server replicas.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, session, token string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+session, token, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, session string) (string, error) {
	token, err := s.client.Get(ctx, redisKeyPrefix+session).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	return token, err
}
