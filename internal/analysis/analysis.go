// Package analysis orchestrates one-shot conjunction and closest-approach
// runs: derive a state-vector snapshot from the current TLE dataset, run the
// requested orbit kernel, classify risk, persist events and publish alerts.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/metrics"
	"github.com/recepsuluker/OrbitGuardAI/internal/orbit"
	"github.com/recepsuluker/OrbitGuardAI/internal/risk"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

// ErrNoDataset is returned when no TLE dataset has been loaded yet.
var ErrNoDataset = errors.New("no TLE dataset loaded")

// Config holds analysis configuration loaded from environment variables.
type Config struct {
	DefaultThresholdKm float64       // Conjunction threshold when the request omits one (default: 10).
	CacheTTL           time.Duration // Result cache lifetime (default: 30s).
	CacheMaxEntries    int           // Result cache size bound (default: 16).
}

// SnapshotSource derives state vectors for a set of TLE entries at an instant.
type SnapshotSource interface {
	Build(ctx context.Context, entries []tle.Entry, at time.Time) ([]orbit.Satellite, int, int)
}

// Broadcaster publishes detected conjunction events to connected clients.
type Broadcaster interface {
	Broadcast(events []risk.Event, at time.Time)
}

// EventSink persists detected conjunction events.
type EventSink interface {
	RecordConjunctions(events []risk.Event, detectedAt time.Time) error
}

// Service runs analyses against the current TLE dataset.
type Service struct {
	source      SnapshotSource
	store       *tle.Store
	sink        EventSink   // optional
	broadcaster Broadcaster // optional
	cache       *resultCache
	config      Config
	logger      *slog.Logger

	now func() time.Time // test hook
}

// NewService wires an analysis service. sink and broadcaster may be nil.
func NewService(source SnapshotSource, store *tle.Store, sink EventSink, broadcaster Broadcaster, config Config, logger *slog.Logger) *Service {
	if config.DefaultThresholdKm <= 0 {
		config.DefaultThresholdKm = 10
	}
	return &Service{
		source:      source,
		store:       store,
		sink:        sink,
		broadcaster: broadcaster,
		cache:       newResultCache(config.CacheTTL, config.CacheMaxEntries),
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// ConjunctionResult is the outcome of one conjunction search run.
type ConjunctionResult struct {
	GeneratedAt    time.Time    `json:"generated_at"`
	ThresholdKm    float64      `json:"threshold_km"`
	SatelliteCount int          `json:"satellite_count"`
	FailedCount    int          `json:"failed_count"`
	Events         []risk.Event `json:"conjunctions"`
}

// ClosestResult is the outcome of one closest-approach run.
type ClosestResult struct {
	GeneratedAt    time.Time               `json:"generated_at"`
	SatelliteCount int                     `json:"satellite_count"`
	FailedCount    int                     `json:"failed_count"`
	Approaches     []orbit.ClosestApproach `json:"approaches"`
}

// RunConjunctions searches the current catalog for close approaches below
// thresholdKm (0 selects the configured default). Results are cached per
// dataset generation and threshold.
func (s *Service) RunConjunctions(ctx context.Context, thresholdKm float64) (*ConjunctionResult, error) {
	if thresholdKm < 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", thresholdKm)
	}
	if thresholdKm == 0 {
		thresholdKm = s.config.DefaultThresholdKm
	}

	ds := s.store.Get()
	if ds == nil {
		return nil, ErrNoDataset
	}

	now := s.now()
	key := cacheKey{kernel: "conjunctions", thresholdKm: thresholdKm, datasetAt: ds.FetchedAt}
	if cached, ok := s.cache.get(key, now); ok {
		return cached.(*ConjunctionResult), nil
	}

	sats, ok, failed := s.source.Build(ctx, ds.Satellites, now)

	start := s.now()
	conjs := orbit.FindConjunctions(sats, thresholdKm)
	metrics.ObserveAnalysis("conjunctions", s.now().Sub(start))

	events := risk.ClassifyAll(conjs)
	byLevel := map[risk.Level]int{}
	for _, e := range events {
		byLevel[e.Level]++
	}
	for level, n := range byLevel {
		metrics.AddConjunctions(string(level), n)
	}

	if s.sink != nil {
		if err := s.sink.RecordConjunctions(events, now); err != nil {
			// Persistence failure must not fail the analysis.
			s.logger.Warn("failed to persist conjunction events", "error", err)
		}
	}
	if s.broadcaster != nil && len(events) > 0 {
		s.broadcaster.Broadcast(events, now)
	}

	s.logger.Info("conjunction analysis complete",
		"satellites", ok,
		"failed", failed,
		"threshold_km", thresholdKm,
		"conjunctions", len(events),
	)

	result := &ConjunctionResult{
		GeneratedAt:    now,
		ThresholdKm:    thresholdKm,
		SatelliteCount: ok,
		FailedCount:    failed,
		Events:         events,
	}
	s.cache.put(key, result, now)
	return result, nil
}

// RunClosestApproaches finds each satellite's nearest neighbour in the
// current catalog.
func (s *Service) RunClosestApproaches(ctx context.Context) (*ClosestResult, error) {
	ds := s.store.Get()
	if ds == nil {
		return nil, ErrNoDataset
	}

	now := s.now()
	key := cacheKey{kernel: "closest", datasetAt: ds.FetchedAt}
	if cached, ok := s.cache.get(key, now); ok {
		return cached.(*ClosestResult), nil
	}

	sats, ok, failed := s.source.Build(ctx, ds.Satellites, now)

	start := s.now()
	approaches := orbit.FindClosestApproaches(sats)
	metrics.ObserveAnalysis("closest_approaches", s.now().Sub(start))

	s.logger.Info("closest-approach analysis complete",
		"satellites", ok,
		"failed", failed,
	)

	result := &ClosestResult{
		GeneratedAt:    now,
		SatelliteCount: ok,
		FailedCount:    failed,
		Approaches:     approaches,
	}
	s.cache.put(key, result, now)
	return result, nil
}

// CacheStats reports result cache effectiveness.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}
