package nonce

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "playout:nonce:"

// RedisStore keeps one key per nonce. Redis drops expired keys itself.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Put(ctx context.Context, nonce string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	created, err := r.client.SetNX(ctx, redisKeyPrefix+nonce, expiresAt.Unix(), ttl).Result()
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("nonce %s already stored", nonce)
	}
	return nil
}

// Consume deletes the key; only the caller that removed it succeeds.
func (r *RedisStore) Consume(ctx context.Context, nonce string) error {
	n, err := r.client.Del(ctx, redisKeyPrefix+nonce).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknown
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, nonce string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+nonce).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
