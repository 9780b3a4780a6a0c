package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/homematch/pkg/observability"
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key.
	Prefix string

	// DialTimeout bounds connection attempts. 0 uses 2s.
	DialTimeout time.Duration

	// Retry controls retries on connection failures. The zero value uses
	// DefaultRetry.
	Retry Retry
}

// RedisCache stores entries in Redis. Connection failures are retried and
// then reported as ErrUnavailable.
type RedisCache struct {
	client *redis.Client
	prefix string
	retry  Retry
}

// NewRedisCache connects to Redis lazily; the first command dials.
func NewRedisCache(opts RedisOptions) *RedisCache {
	dial := opts.DialTimeout
	if dial == 0 {
		dial = 2 * time.Second
	}
	retry := opts.Retry
	if retry.Attempts == 0 {
		retry = DefaultRetry
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: dial,
			MaxRetries:  -1, // retries are handled by Retry
		}),
		prefix: opts.Prefix,
		retry:  retry,
	}
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.do(ctx, func() error { return c.client.Ping(ctx).Err() })
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := c.do(ctx, func() error {
		v, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		data, hit = v, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "redis")
	} else {
		observability.Cache().OnCacheMiss(ctx, "redis")
	}
	return data, hit, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	err := c.do(ctx, func() error { return c.client.Set(ctx, c.prefix+key, data, ttl).Err() })
	if err == nil {
		observability.Cache().OnCacheSet(ctx, "redis", len(data))
	}
	return err
}

// Delete implements Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error { return c.client.Del(ctx, c.prefix+key).Err() })
}

// Close implements Cache.
func (c *RedisCache) Close() error { return c.client.Close() }

// do runs op with retries. Every error is considered a connection problem
// except context cancellation.
func (c *RedisCache) do(ctx context.Context, op func() error) error {
	err := c.retry.Do(ctx, func() error {
		err := op()
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return Retryable(err)
	})
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

var _ Cache = (*RedisCache)(nil)
