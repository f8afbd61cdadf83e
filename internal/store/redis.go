package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medstore/internal/logging"

	"github.com/go-redis/redis/v8"
)

// Redis stores values under prefixed keys. It lets several terminals share
// one session, e.g. a kiosk and a staff console.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// NewRedis connects to redisURL and verifies the connection with PING.
func NewRedis(redisURL, keyPrefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	r := NewRedisClient(redis.NewClient(opts), keyPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logging.Store("Redis storage connected (prefix %q)", keyPrefix)
	return r, nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, keyPrefix string) *Redis {
	return &Redis{client: client, keyPrefix: keyPrefix, timeout: 3 * time.Second}
}

func (r *Redis) key(k string) string { return r.keyPrefix + k }

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Redis) Read(key string) ([]byte, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Write(key string, value []byte) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
