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

	"github.com/recepsuluker/OrbitGuardAI/internal/analysis"
	"github.com/recepsuluker/OrbitGuardAI/internal/api"
	"github.com/recepsuluker/OrbitGuardAI/internal/auth"
	"github.com/recepsuluker/OrbitGuardAI/internal/catalog"
	"github.com/recepsuluker/OrbitGuardAI/internal/metrics"
	"github.com/recepsuluker/OrbitGuardAI/internal/snapshot"
	"github.com/recepsuluker/OrbitGuardAI/internal/stream"
	"github.com/recepsuluker/OrbitGuardAI/internal/syncer"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
	"github.com/recepsuluker/OrbitGuardAI/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ORBITGUARD_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	diskCache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles)

	// Attempt to load cached TLE data on startup.
	data, ts, err := diskCache.LoadLatest()
	if err != nil {
		logger.Info("no TLE cache found, starting without TLE data", "error", err)
	} else {
		entries, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached TLE data", "error", err)
		} else if len(entries) > 0 {
			store.Set(tle.NewDataset("cache", ts, entries))
			metrics.SetTLEDatasetCount(len(entries))
			logger.Info("loaded TLE data from cache", "count", len(entries), "cached_at", ts.Format(time.RFC3339))
		}
	}

	var cat *catalog.Catalog
	if tleCfg.CatalogPath != "" {
		cat, err = catalog.Open(tleCfg.CatalogPath)
		if err != nil {
			logger.Error("failed to open satellite catalog", "path", tleCfg.CatalogPath, "error", err)
			os.Exit(1)
		}
		defer cat.Close()
	}

	snapCfg := loadSnapshotConfig(logger)
	builder := snapshot.NewBuilder(snapCfg.Workers, logger)
	metrics.SetSnapshotWorkers(snapCfg.Workers)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(streamCfg, logger)

	analysisCfg := loadAnalysisConfig(logger)
	svc := analysis.NewService(builder, store, eventSink(cat), streamHandler, analysisCfg, logger)

	var sync *syncer.Syncer
	if tleCfg.EnableFetch {
		fetcher := tle.NewFetcher(tleCfg.SourceURL, logger, tleCfg.ExtraSourceURLs...)
		sync = syncer.New(fetcher, store, diskCache, cat, loadSyncConfig(logger), logger)
	}

	srv := api.NewServer(addr, logger, authCfg, svc, store, cat, apiSyncer(sync), streamHandler, web.Content)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the periodic catalog sync.
	if sync != nil {
		go sync.Run(ctx)
	}

	// Background goroutine to update TLE dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
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

// eventSink adapts a possibly-nil catalog to the analysis EventSink
// interface. A nil *Catalog in a non-nil interface would defeat the
// service's nil check.
func eventSink(cat *catalog.Catalog) analysis.EventSink {
	if cat == nil {
		return nil
	}
	return cat
}

func apiSyncer(sync *syncer.Syncer) api.Syncer {
	if sync == nil {
		return nil
	}
	return sync
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ORBITGUARD_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ORBITGUARD_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ORBITGUARD_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ORBITGUARD_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// tleConfig groups TLE source, disk cache and catalog settings.
type tleConfig struct {
	EnableFetch     bool
	SourceURL       string
	ExtraSourceURLs []string
	CacheDir        string
	MaxFiles        int
	CatalogPath     string
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch: true,
		CacheDir:    "/tmp/orbitguard/tle",
		MaxFiles:    5,
		CatalogPath: "/tmp/orbitguard/catalog.db",
		ExtraSourceURLs: []string{
			// ISS (NORAD 25544) — well-documented reference satellite for validation.
			"https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle",
		},
	}

	if v := os.Getenv("ORBITGUARD_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITGUARD_ENABLE_TLE_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("ORBITGUARD_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("ORBITGUARD_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("ORBITGUARD_TLE_CACHE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_TLE_CACHE_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	// Empty string disables the SQLite catalog entirely.
	if v, ok := os.LookupEnv("ORBITGUARD_CATALOG_PATH"); ok {
		cfg.CatalogPath = v
	}

	logger.Info("tle config",
		"enable_fetch", cfg.EnableFetch,
		"cache_dir", cfg.CacheDir,
		"max_files", cfg.MaxFiles,
		"catalog_path", cfg.CatalogPath,
	)

	return cfg
}

// snapshotConfig holds state-vector snapshot settings.
type snapshotConfig struct {
	Workers int
}

func loadSnapshotConfig(logger *slog.Logger) snapshotConfig {
	cfg := snapshotConfig{Workers: runtime.NumCPU()}

	if v := os.Getenv("ORBITGUARD_SNAPSHOT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_SNAPSHOT_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	logger.Info("snapshot config", "workers", cfg.Workers)

	return cfg
}

func loadAnalysisConfig(logger *slog.Logger) analysis.Config {
	cfg := analysis.Config{
		DefaultThresholdKm: 10,
		CacheTTL:           30 * time.Second,
		CacheMaxEntries:    16,
	}

	if v := os.Getenv("ORBITGUARD_DEFAULT_THRESHOLD_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid ORBITGUARD_DEFAULT_THRESHOLD_KM value, using default", "value", v, "default", cfg.DefaultThresholdKm)
		} else {
			cfg.DefaultThresholdKm = f
		}
	}

	if v := os.Getenv("ORBITGUARD_ANALYSIS_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_ANALYSIS_CACHE_TTL value, using default", "value", v, "default", 30)
		} else {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ORBITGUARD_ANALYSIS_CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_ANALYSIS_CACHE_MAX_ENTRIES value, using default", "value", v, "default", cfg.CacheMaxEntries)
		} else {
			cfg.CacheMaxEntries = n
		}
	}

	logger.Info("analysis config",
		"default_threshold_km", cfg.DefaultThresholdKm,
		"cache_ttl_seconds", cfg.CacheTTL.Seconds(),
		"cache_max_entries", cfg.CacheMaxEntries,
	)

	return cfg
}

func loadSyncConfig(logger *slog.Logger) syncer.Config {
	cfg := syncer.Config{
		Interval:      6 * time.Hour,
		MinSatellites: 100,
	}

	if v := os.Getenv("ORBITGUARD_SYNC_INTERVAL_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_SYNC_INTERVAL_HOURS value, using default", "value", v, "default", 6)
		} else {
			cfg.Interval = time.Duration(n) * time.Hour
		}
	}

	if v := os.Getenv("ORBITGUARD_SYNC_MIN_SATELLITES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_SYNC_MIN_SATELLITES value, using default", "value", v, "default", cfg.MinSatellites)
		} else {
			cfg.MinSatellites = n
		}
	}

	logger.Info("sync config",
		"interval_hours", cfg.Interval.Hours(),
		"min_satellites", cfg.MinSatellites,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("ORBITGUARD_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ORBITGUARD_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITGUARD_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ORBITGUARD_STREAM_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITGUARD_STREAM_TRUST_PROXY value, defaulting to false", "value", v)
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
