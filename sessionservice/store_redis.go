package sessionservice

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps each session under its own key, created with SETNX.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore connects to the Redis server described by a redis:// URL.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return &RedisStore{redis: redis.NewClient(opts)}, nil
}

func (r *RedisStore) key(token string) string {
	return redisKeyPrefix + token
}

func (r *RedisStore) Create(ctx context.Context, session Session) error {
	created, err := r.redis.SetNX(ctx, r.key(session.Token), strconv.FormatInt(session.CreatedAt.UnixMilli(), 10), 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrSessionExists
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(token)).Result()
	return n > 0, err
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	n, err := r.redis.Del(ctx, r.key(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.redis.Close()
}

// DSN returns the address of the Redis server.
func (r *RedisStore) DSN() string {
	return fmt.Sprintf("redis://%s", r.redis.Options().Addr)
}
