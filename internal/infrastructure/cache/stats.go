// Package cache holds in-process caches and the PostgreSQL LISTEN/NOTIFY
// listener that invalidates them across server instances.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"repopa/internal/domain/entes"
)

const statsKey = "dashboard"

// DefaultStatsTTL bounds staleness when no invalidation arrives.
const DefaultStatsTTL = 30 * time.Second

var _ entes.StatsCache = (*StatsCache)(nil)

// StatsCache keeps the dashboard payload for a short TTL.
type StatsCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStatsCache creates a cache. ttl <= 0 uses DefaultStatsTTL.
func NewStatsCache(ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get returns the cached stats, if any.
func (c *StatsCache) Get() (entes.Stats, bool) {
	v, ok := c.cache.Get(statsKey)
	if !ok {
		return entes.Stats{}, false
	}
	s, ok := v.(entes.Stats)
	return s, ok
}

// Set stores s for the cache TTL.
func (c *StatsCache) Set(s entes.Stats) {
	c.cache.Set(statsKey, s, c.ttl)
}

// Invalidate drops the cached stats.
func (c *StatsCache) Invalidate() {
	c.cache.Delete(statsKey)
}

// OnEntesChanged is a Handler for the entes_changed channel.
func (c *StatsCache) OnEntesChanged(string, string) {
	c.Invalidate()
}
