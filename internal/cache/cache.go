// Package cache provides an optional Redis read-through cache for computed
// availability responses. Keys embed a per-organization generation counter;
// any schedule/policy/exception write bumps the counter, so stale entries
// stop being addressed and expire by TTL. A nil client disables caching.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client. All methods are safe on a nil receiver or a
// nil client, in which case lookups miss and writes are dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a cache; client may be nil.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON loads the cached value for key into dest. Returns false on miss,
// disabled cache, or any Redis/decoding failure; caching stays best-effort.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON stores value under key with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

// Generation returns the organization's current cache generation.
func (c *Cache) Generation(ctx context.Context, orgID string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, genKey(orgID)).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// Invalidate bumps the organization's generation so previously cached
// responses are never addressed again.
func (c *Cache) Invalidate(ctx context.Context, orgID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, genKey(orgID))
}

// DayKey builds the cache key for a day-slots response.
func (c *Cache) DayKey(ctx context.Context, orgID, date string) string {
	return fmt.Sprintf("availability:day:%s:%d:%s", orgID, c.Generation(ctx, orgID), date)
}

// MonthKey builds the cache key for a month-dates response.
func (c *Cache) MonthKey(ctx context.Context, orgID string, year, month int) string {
	return fmt.Sprintf("availability:month:%s:%d:%04d-%02d", orgID, c.Generation(ctx, orgID), year, month)
}

func genKey(orgID string) string {
	return "availability:gen:" + orgID
}
