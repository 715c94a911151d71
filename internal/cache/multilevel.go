package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const defaultL1TTL = 30 * time.Second

// MultiLevelCache keeps hot views in process memory and shares them across
// instances through Redis. Redis failures trip the breaker and the cache
// keeps serving from L1 alone.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	l1TTL   time.Duration
}

func NewMultiLevelCache(redisCache *RedisCache) *MultiLevelCache {
	return &MultiLevelCache{
		l1:      NewMemoryCache(1000),
		l2:      redisCache,
		breaker: NewCircuitBreaker(nil),
		metrics: NewCacheMetrics(),
		l1TTL:   defaultL1TTL,
	}
}

// WithL1TTL caps how long an entry lives in process memory. Zero or
// negative keeps the default.
func (c *MultiLevelCache) WithL1TTL(ttl time.Duration) *MultiLevelCache {
	if ttl > 0 {
		c.l1TTL = ttl
	}
	return c
}

// Set stores value under key. The key's view (see ViewKey) becomes its tag.
func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	view := viewOf(key)
	c.l1.Set(key, data, minTTL(ttl, c.l1TTL), view)
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}

	err = c.breaker.Execute(func() error {
		return c.l2.setRawWithTags(ctx, key, data, ttl, []string{view})
	})
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if data, found := c.l1.Get(key); found {
		c.metrics.RecordHit()
		return decode(data, dest)
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	var data []byte
	miss := false
	err := c.breaker.Execute(func() error {
		raw, err := c.l2.getRaw(ctx, key)
		if err == ErrCacheMiss {
			miss = true
			return nil
		}
		data = raw
		return err
	})
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	if miss {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	c.metrics.RecordHit()
	c.l1.Set(key, data, c.l1TTL, viewOf(key))
	return decode(data, dest)
}

// Invalidate drops every cached entry belonging to the given views.
// Failures are logged; the L1 copy is always cleared.
func (c *MultiLevelCache) Invalidate(ctx context.Context, views ...string) {
	for _, view := range views {
		c.l1.InvalidateTag(view)
		c.metrics.RecordInvalidation()

		if c.l2 == nil {
			continue
		}
		err := c.breaker.Execute(func() error {
			return c.l2.InvalidateByTag(ctx, view)
		})
		if err != nil {
			c.metrics.RecordError()
			log.Printf("cache: failed to invalidate view %s: %v", view, err)
		}
	}
}

func (c *MultiLevelCache) Metrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"breaker": c.breaker.GetStats(),
		"metrics": c.metrics.GetStats(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}

	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 != nil {
		return c.l2.Health()
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

func decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func minTTL(a, b time.Duration) time.Duration {
	if a <= 0 {
		return b
	}
	if b <= 0 || a < b {
		return a
	}
	return b
}
