package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// Cache is the interface for the shared key-value cache store. Keys are
// either plain values with a TTL or ordered lists; each operation is atomic
// on its single key and no multi-key transaction is offered.
type Cache interface {
	// Get returns the value for key. The second return value is false on a
	// cache miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// ListAppend pushes value to the tail of the list stored at key.
	ListAppend(ctx context.Context, key, value string) error
	// ListRange returns elements between start and stop inclusive. Negative
	// offsets count from the tail, -1 being the last element.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// ListTrim discards every element outside [start, stop].
	ListTrim(ctx context.Context, key string, start, stop int64) error

	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedis connects to the Redis server at addr and verifies the connection
// with a ping before returning.
func NewRedis(ctx context.Context, addr, username, password string) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", addr))
	}

	return &redisCache{client: client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get cache value", goerr.V("key", key))
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set cache value", goerr.V("key", key))
	}
	return nil
}

func (c *redisCache) ListAppend(ctx context.Context, key, value string) error {
	if err := c.client.RPush(ctx, key, value).Err(); err != nil {
		return goerr.Wrap(err, "failed to append to list", goerr.V("key", key))
	}
	return nil
}

func (c *redisCache) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := c.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read list range", goerr.V("key", key))
	}
	return vals, nil
}

func (c *redisCache) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := c.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return goerr.Wrap(err, "failed to trim list", goerr.V("key", key))
	}
	return nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set expiry", goerr.V("key", key))
	}
	return nil
}
