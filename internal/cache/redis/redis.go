package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
)

// Cache is a redis-backed device cache. Calls go through a circuit breaker
// so a dead redis fails fast instead of stalling every request.
type Cache struct {
	client  *redis.Client
	cb      *gobreaker.CircuitBreaker
	prefix  string
	metrics *metrics.Metrics
}

type Config struct {
	URL       string
	KeyPrefix string
}

func NewCache(cfg Config, m *metrics.Metrics) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client, cfg.KeyPrefix, m), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, m *metrics.Metrics) *Cache {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Cache{client: client, cb: cb, prefix: prefix, metrics: m}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.cb.Execute(func() (interface{}, error) {
		raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return raw, err
	})
	if err != nil {
		c.count("get", "error")
		return nil, false, apperrors.BackendUnavailable(err)
	}
	if v == nil {
		c.count("get", "miss")
		return nil, false, nil
	}
	c.count("get", "hit")
	return v.([]byte), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, value, 0).Err()
	})
	if err != nil {
		c.count("set", "error")
		return apperrors.BackendUnavailable(err)
	}
	c.count("set", "hit")
	return nil
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, c.prefix+key).Err()
	})
	if err != nil {
		c.count("remove", "error")
		return apperrors.BackendUnavailable(err)
	}
	c.count("remove", "hit")
	return nil
}

// PingContext is used by readiness probes.
func (c *Cache) PingContext(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) count(op, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheOperations.WithLabelValues(op, status).Inc()
}
