// Package syncer keeps the in-memory TLE dataset and the on-disk catalog in
// step with the remote element sources via a periodic background sync.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/catalog"
	"github.com/recepsuluker/OrbitGuardAI/internal/metrics"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

// Config holds sync configuration loaded from environment variables.
type Config struct {
	Interval      time.Duration // Time between syncs (default: 6h).
	MinSatellites int           // Reject fetches smaller than this (default: 1).
}

// Syncer periodically fetches, parses and publishes the satellite catalog.
type Syncer struct {
	fetcher   *tle.Fetcher
	store     *tle.Store
	diskCache *tle.Cache       // optional
	catalog   *catalog.Catalog // optional
	config    Config
	logger    *slog.Logger
}

// New wires a Syncer. diskCache and cat may be nil.
func New(fetcher *tle.Fetcher, store *tle.Store, diskCache *tle.Cache, cat *catalog.Catalog, config Config, logger *slog.Logger) *Syncer {
	if config.Interval <= 0 {
		config.Interval = 6 * time.Hour
	}
	if config.MinSatellites <= 0 {
		config.MinSatellites = 1
	}
	return &Syncer{
		fetcher:   fetcher,
		store:     store,
		diskCache: diskCache,
		catalog:   cat,
		config:    config,
		logger:    logger,
	}
}

// SyncOnce performs one fetch-parse-publish cycle and returns the number of
// satellites in the new dataset. A fetch that yields fewer than
// MinSatellites entries is rejected so a truncated download cannot replace
// a good dataset.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	s.store.Lock()
	defer s.store.Unlock()

	start := time.Now()

	data, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logFailure("fetch failed", err)
		return 0, fmt.Errorf("fetching catalog: %w", err)
	}

	entries, err := tle.Parse(strings.NewReader(string(data)), s.logger)
	if err != nil {
		s.logFailure("parse failed", err)
		return 0, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(entries) < s.config.MinSatellites {
		err := fmt.Errorf("fetched only %d satellites, want at least %d", len(entries), s.config.MinSatellites)
		s.logFailure("dataset too small", err)
		return 0, err
	}

	fetchedAt := time.Now().UTC()
	s.store.Set(tle.NewDataset(s.fetcher.SourceURL(), fetchedAt, entries))
	metrics.SetTLEDatasetCount(len(entries))

	if s.diskCache != nil {
		if err := s.diskCache.Write(data, fetchedAt); err != nil {
			s.logger.Warn("failed to write TLE disk cache", "error", err)
		}
	}
	if s.catalog != nil {
		if _, err := s.catalog.UpsertSatellites(entries); err != nil {
			s.logger.Warn("failed to upsert catalog rows", "error", err)
		}
		if err := s.catalog.LogUpdate("full_sync", len(entries), "success", ""); err != nil {
			s.logger.Warn("failed to log catalog update", "error", err)
		}
	}

	s.logger.Info("catalog sync complete",
		"satellites", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(entries), nil
}

func (s *Syncer) logFailure(msg string, err error) {
	s.logger.Error("catalog sync failed: "+msg, "error", err)
	if s.catalog != nil {
		if logErr := s.catalog.LogUpdate("full_sync", 0, "failed", err.Error()); logErr != nil {
			s.logger.Warn("failed to log catalog update", "error", logErr)
		}
	}
}

// Run syncs immediately and then at every configured interval until the
// context is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	if _, err := s.SyncOnce(ctx); err != nil {
		s.logger.Warn("initial catalog sync failed, will retry on schedule", "error", err)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				s.logger.Warn("scheduled catalog sync failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
