package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/astro/astrogo/internal/api"
	"github.com/astro/astrogo/internal/auth"
	"github.com/astro/astrogo/internal/cache"
	"github.com/astro/astrogo/internal/cities"
	"github.com/astro/astrogo/internal/engine"
	"github.com/astro/astrogo/internal/metrics"
	"github.com/astro/astrogo/internal/scout"
	"github.com/astro/astrogo/internal/stream"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ASTRO_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	citiesCfg := loadCitiesConfig(logger)
	store := cities.NewStore()
	cityCache := cities.NewCache(citiesCfg.CacheDir, citiesCfg.MaxFiles)
	loadCityDataset(ctx, store, cityCache, citiesCfg, logger)

	eng := engine.New(loadEngineConfig(logger), logger)
	pool := scout.NewWorkerPool(loadScoutWorkers(logger), logger)

	cacheCfg, redisAddr, redisPassword, redisDB := loadCacheConfig(logger)
	charts := &cache.Tiered{Memory: cache.NewChartCache(cacheCfg, logger)}
	if redisAddr != "" {
		redisTier := cache.NewRedisCache(redisAddr, redisPassword, redisDB, cacheCfg.TTL, logger)
		if err := redisTier.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, running memory-only", "addr", redisAddr, "error", err)
		} else {
			charts.Redis = redisTier
			logger.Info("redis chart tier connected", "addr", redisAddr)
		}
	}

	streamCfg := loadStreamConfig(logger)
	streamCfg.AuthEnabled = authCfg.Enabled
	streamCfg.AuthToken = authCfg.Token

	srv := api.NewServer(addr, eng, pool, store, charts, streamCfg, authCfg, logger)

	// Start cache eviction loop.
	go charts.Memory.Start(ctx)

	// Background goroutine to update city dataset gauges.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetCityDatasetAge(age)
				}
				metrics.SetCitiesLoaded(store.Count())
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "backend", eng.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadCityDataset loads the city catalog from, in order of preference,
// Postgres, the disk cache, and an HTTP source. The HTTP fetch refreshes
// the catalog even when an older copy was already loaded.
func loadCityDataset(ctx context.Context, store *cities.Store, cityCache *cities.Cache, cfg citiesConfig, logger *slog.Logger) {
	if cfg.DSN != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		ds, err := cities.LoadFromPostgres(dbCtx, cfg.DSN)
		cancel()
		if err != nil {
			logger.Warn("postgres city load failed", "error", err)
		} else {
			store.Set(ds)
			metrics.SetCitiesLoaded(len(ds.Cities))
			logger.Info("loaded city catalog from postgres", "count", len(ds.Cities))
			return
		}
	}

	data, ts, err := cityCache.LoadLatest()
	if err != nil {
		logger.Info("no city cache found, starting without catalog", "error", err)
	} else {
		entries, err := cities.ParseCSV(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached city data", "error", err)
		} else if len(entries) > 0 {
			store.Set(&cities.Dataset{Source: "cache", LoadedAt: ts, Cities: entries})
			metrics.SetCitiesLoaded(len(entries))
			logger.Info("loaded city catalog from cache", "count", len(entries), "cached_at", ts.Format(time.RFC3339))
		}
	}

	if cfg.SourceURL == "" {
		return
	}
	go func() {
		fetcher := cities.NewFetcher(cfg.SourceURL)
		data, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Warn("city catalog fetch failed", "url", cfg.SourceURL, "error", err)
			return
		}
		entries, err := cities.ParseCSV(bytes.NewReader(data), logger)
		if err != nil || len(entries) == 0 {
			logger.Warn("fetched city data unusable", "url", cfg.SourceURL, "error", err)
			return
		}
		now := time.Now()
		store.Set(&cities.Dataset{Source: cfg.SourceURL, LoadedAt: now, Cities: entries})
		metrics.SetCitiesLoaded(len(entries))
		if err := cityCache.Write(data, now); err != nil {
			logger.Warn("city cache write failed", "error", err)
		}
		logger.Info("loaded city catalog from source", "count", len(entries), "url", cfg.SourceURL)
	}()
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ASTRO_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ASTRO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ASTRO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ASTRO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadEngineConfig(logger *slog.Logger) engine.Config {
	cfg := engine.Config{Workers: runtime.NumCPU()}

	if v := os.Getenv("ASTRO_ENGINE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_ENGINE_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	if v := os.Getenv("ASTRO_FORCE_INTERPRETED"); v != "" {
		forced, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ASTRO_FORCE_INTERPRETED value, ignoring", "value", v)
		} else {
			cfg.ForceInterpreted = forced
		}
	}

	logger.Info("engine config", "workers", cfg.Workers, "force_interpreted", cfg.ForceInterpreted)
	return cfg
}

func loadScoutWorkers(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("ASTRO_SCOUT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_SCOUT_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	logger.Info("scout config", "workers", workers)
	return workers
}

type citiesConfig struct {
	SourceURL string
	DSN       string
	CacheDir  string
	MaxFiles  int
}

func loadCitiesConfig(logger *slog.Logger) citiesConfig {
	cfg := citiesConfig{
		CacheDir: "/tmp/astrogo/cities",
		MaxFiles: 5,
	}

	cfg.SourceURL = os.Getenv("ASTRO_CITIES_URL")
	cfg.DSN = os.Getenv("ASTRO_CITIES_DSN")

	if v := os.Getenv("ASTRO_CITIES_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("ASTRO_CITIES_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_CITIES_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	logger.Info("cities config",
		"source_url", cfg.SourceURL,
		"postgres", cfg.DSN != "",
		"cache_dir", cfg.CacheDir,
	)

	return cfg
}

func loadCacheConfig(logger *slog.Logger) (cache.Config, string, string, int) {
	cfg := cache.Config{
		TTL:        time.Hour,
		MaxEntries: 256,
	}

	if v := os.Getenv("ASTRO_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_CACHE_TTL value, using default", "value", v, "default", 3600)
		} else {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ASTRO_CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_CACHE_MAX_ENTRIES value, using default", "value", v, "default", cfg.MaxEntries)
		} else {
			cfg.MaxEntries = n
		}
	}

	redisAddr := os.Getenv("ASTRO_REDIS_ADDR")
	redisPassword := os.Getenv("ASTRO_REDIS_PASSWORD")
	redisDB := 0
	if v := os.Getenv("ASTRO_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid ASTRO_REDIS_DB value, using 0", "value", v)
		} else {
			redisDB = n
		}
	}

	logger.Info("cache config",
		"ttl_seconds", cfg.TTL.Seconds(),
		"max_entries", cfg.MaxEntries,
		"redis", redisAddr != "",
	)

	return cfg, redisAddr, redisPassword, redisDB
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("ASTRO_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ASTRO_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ASTRO_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ASTRO_TRUST_PROXY value, ignoring", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}
