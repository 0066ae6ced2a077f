package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	bserrors "github.com/matzehuels/bundlescope/pkg/errors"
)

// RedisCache shares entries through a Redis server. Every key is stored
// under a namespace so Clear never touches foreign keys.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// RedisNamespace prefixes every key RedisCache writes.
const RedisNamespace = "bundlescope:"

// NewRedisCache connects to the server at url, a redis:// or rediss://
// URL, and checks that it answers.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	if err := bserrors.ValidateCacheURL(url); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, bserrors.Wrap(bserrors.ErrCodeInvalidInput, err, "parse cache URL")
	}
	c := &RedisCache{client: redis.NewClient(opts), namespace: RedisNamespace}

	err = RetryWithBackoff(ctx, func() error {
		return wrapRedis(c.client.Ping(ctx).Err())
	})
	if err != nil {
		c.client.Close()
		return nil, fmt.Errorf("connect to %s: %w", opts.Addr, err)
	}
	return c, nil
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, c.namespace+key).Bytes()
		return wrapRedis(err)
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in the cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return RetryWithBackoff(ctx, func() error {
		return wrapRedis(c.client.Set(ctx, c.namespace+key, data, ttl).Err())
	})
}

// Delete removes a value from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return RetryWithBackoff(ctx, func() error {
		return wrapRedis(c.client.Del(ctx, c.namespace+key).Err())
	})
}

// Clear removes every key in the namespace and returns how many there
// were.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	n := 0
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 500).Iterator()
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		deleted, err := c.client.Del(ctx, batch...).Result()
		n += int(deleted)
		batch = batch[:0]
		return wrapRedis(err)
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return n, wrapRedis(err)
	}
	return n, flush()
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// wrapRedis marks everything but a missing key as a retryable network
// failure.
func wrapRedis(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
}

var _ Cache = (*RedisCache)(nil)
