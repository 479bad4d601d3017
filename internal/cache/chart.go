// Package cache stores computed chart line sets. The in-memory tier
// keys on the chart moment and sampling step with a TTL and a size cap;
// an optional Redis tier survives restarts and is shared between
// replicas.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/metrics"
)

// Config holds chart cache configuration.
type Config struct {
	TTL        time.Duration // entry lifetime (default: 1h)
	MaxEntries int           // in-memory cap (default: 256)
}

type chartKey struct {
	jd   float64
	step float64
}

type chartEntry struct {
	set      *lines.Set
	storedAt time.Time
	lastUsed time.Time
}

// ChartCache is the in-memory chart tier. Safe for concurrent use.
type ChartCache struct {
	mu      sync.Mutex
	entries map[chartKey]*chartEntry

	config Config
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewChartCache creates an empty chart cache.
func NewChartCache(config Config, logger *slog.Logger) *ChartCache {
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 256
	}
	logger.Info("chart cache initialized",
		"ttl_seconds", config.TTL.Seconds(),
		"max_entries", config.MaxEntries,
	)
	return &ChartCache{
		entries: make(map[chartKey]*chartEntry),
		config:  config,
		logger:  logger,
	}
}

// Get returns the cached line set for a chart moment, or nil.
func (c *ChartCache) Get(jd, step float64) *lines.Set {
	key := chartKey{jd: jd, step: step}
	now := time.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.Sub(entry.storedAt) > c.config.TTL {
		delete(c.entries, key)
		c.evictions.Add(1)
		ok = false
	}
	if ok {
		entry.lastUsed = now
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return entry.set
}

// Put stores a line set, evicting the least recently used entry when
// the cache is full.
func (c *ChartCache) Put(jd, step float64, set *lines.Set) {
	key := chartKey{jd: jd, step: step}
	now := time.Now()

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.config.MaxEntries {
		var oldestKey chartKey
		var oldest time.Time
		for k, e := range c.entries {
			if oldest.IsZero() || e.lastUsed.Before(oldest) {
				oldest = e.lastUsed
				oldestKey = k
			}
		}
		delete(c.entries, oldestKey)
		c.evictions.Add(1)
		metrics.AddCacheEvictions(1)
	}
	c.entries[key] = &chartEntry{set: set, storedAt: now, lastUsed: now}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(size)
}

// evictExpired removes entries past their TTL.
func (c *ChartCache) evictExpired() int {
	cutoff := time.Now().Add(-c.config.TTL)
	var removed int

	c.mu.Lock()
	for k, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		metrics.SetCacheEntries(size)
		c.logger.Debug("chart cache eviction", "entries_removed", removed)
	}
	return removed
}

// Start runs the periodic eviction loop until the context ends.
func (c *ChartCache) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Len returns the number of cached entries.
func (c *ChartCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats holds cache counters for the stats endpoint.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns current cache statistics.
func (c *ChartCache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
