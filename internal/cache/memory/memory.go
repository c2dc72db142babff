package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinical-records/pkg/metrics"
)

// Cache keeps entries in process memory without expiry.
type Cache struct {
	c       *gocache.Cache
	prefix  string
	metrics *metrics.Metrics
}

func New(prefix string, m *metrics.Metrics) *Cache {
	return &Cache{
		c:       gocache.New(gocache.NoExpiration, 0),
		prefix:  prefix,
		metrics: m,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(c.prefix + key)
	c.count("get", ok)
	if !ok {
		return nil, false, nil
	}
	raw := v.([]byte)
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.c.Set(c.prefix+key, stored, gocache.NoExpiration)
	c.count("set", true)
	return nil
}

func (c *Cache) Remove(_ context.Context, key string) error {
	c.c.Delete(c.prefix + key)
	c.count("remove", true)
	return nil
}

func (c *Cache) count(op string, hit bool) {
	if c.metrics == nil {
		return
	}
	status := "hit"
	if !hit {
		status = "miss"
	}
	c.metrics.CacheOperations.WithLabelValues(op, status).Inc()
}
