package storage

import (
	"context"
	"fmt"
	"sync"

	"interviewer/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the Redis client used for sessions and rate data
type Cache struct {
	client *redis.Client
	logger *zap.SugaredLogger

	closeOnce sync.Once
	closeErr  error
}

// ConnectCache parses a REDIS_URL (redis:// or rediss://), dials the server
// and pings it before returning
func ConnectCache(ctx context.Context, rawURL string, logger *zap.SugaredLogger) (*Cache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCacheURL, err)
	}
	if opts.DialTimeout == 0 || opts.DialTimeout > DefaultConnectTimeout {
		opts.DialTimeout = DefaultConnectTimeout
	}

	cache := NewCache(redis.NewClient(opts), logger)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		cache.client.Close()
		metrics.DependencyConnectFailures.WithLabelValues("cache").Inc()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Infow("Cache connected", "addr", opts.Addr, "db", opts.DB)
	return cache, nil
}

// NewCache wraps an existing client
func NewCache(client *redis.Client, logger *zap.SugaredLogger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Client exposes the underlying client to feature packages
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Name identifies the cache in lifecycle logs
func (c *Cache) Name() string {
	return "cache"
}

// Ping tests the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping(ctx).Err()
}

// Disconnect closes the Redis connection. It is safe to call more than once.
func (c *Cache) Disconnect(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Close()
		if c.closeErr != nil {
			c.logger.Errorw("Cache disconnect failed", "error", c.closeErr)
			return
		}
		c.logger.Infow("Cache disconnected")
	})
	return c.closeErr
}
