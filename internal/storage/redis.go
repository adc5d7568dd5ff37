package storage

import (
	"context"
	"errors"

	"github.com/sweetfrozen/storefront/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
}

// RedisBackend stores records as plain redis strings under the client namespace.
type RedisBackend struct {
	client redisKV
}

func NewRedisBackend(client redisKV) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *RedisBackend) Write(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value)
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key)
}
