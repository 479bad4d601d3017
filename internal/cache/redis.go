package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/astro/astrogo/internal/lines"
	"github.com/astro/astrogo/internal/metrics"
)

// RedisCache is the optional shared chart tier. Failures degrade to
// misses; Redis being down never fails a request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects a Redis chart tier.
func NewRedisCache(addr, password string, db int, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// Ping verifies the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func redisKey(jd, step float64) string {
	return fmt.Sprintf("astro:lines:%.8f:%.2f", jd, step)
}

// Get returns the cached line set for a chart moment, or nil.
func (r *RedisCache) Get(ctx context.Context, jd, step float64) *lines.Set {
	data, err := r.client.Get(ctx, redisKey(jd, step)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", "error", err)
		}
		return nil
	}

	var set lines.Set
	if err := json.Unmarshal(data, &set); err != nil {
		r.logger.Warn("redis entry corrupt, dropping", "error", err)
		r.client.Del(ctx, redisKey(jd, step))
		return nil
	}
	return &set
}

// Put stores a line set with the configured TTL.
func (r *RedisCache) Put(ctx context.Context, jd, step float64, set *lines.Set) {
	data, err := json.Marshal(set)
	if err != nil {
		r.logger.Warn("redis marshal failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKey(jd, step), data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "error", err)
	}
}

// Tiered layers the in-memory cache over an optional Redis tier. A
// Redis hit backfills memory.
type Tiered struct {
	Memory *ChartCache
	Redis  *RedisCache // may be nil
}

// Get checks memory first, then Redis.
func (t *Tiered) Get(ctx context.Context, jd, step float64) (*lines.Set, string) {
	if set := t.Memory.Get(jd, step); set != nil {
		metrics.IncCacheHits("memory")
		return set, "memory"
	}
	metrics.IncCacheMisses("memory")
	if t.Redis == nil {
		return nil, ""
	}
	set := t.Redis.Get(ctx, jd, step)
	if set == nil {
		metrics.IncCacheMisses("redis")
		return nil, ""
	}
	metrics.IncCacheHits("redis")
	t.Memory.Put(jd, step, set)
	return set, "redis"
}

// Put stores in every tier.
func (t *Tiered) Put(ctx context.Context, jd, step float64, set *lines.Set) {
	t.Memory.Put(jd, step, set)
	if t.Redis != nil {
		t.Redis.Put(ctx, jd, step, set)
	}
}
