package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/orbit"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

// buildJob is a unit of work for the worker pool.
type buildJob struct {
	entry tle.Entry
	at    time.Time
}

// buildResult is the output of a single satellite state derivation.
type buildResult struct {
	sat     orbit.Satellite
	err     error
	noradID int
}

// Builder derives full-catalog state-vector snapshots on a fixed pool of
// goroutines.
type Builder struct {
	workers int
	logger  *slog.Logger
}

// NewBuilder creates a Builder with the given number of workers.
func NewBuilder(workers int, logger *slog.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{workers: workers, logger: logger}
}

// Build derives the state vector of every entry at the target time.
// Entries whose elements fail to initialize or propagate are logged and
// skipped; the returned counts are (succeeded, failed).
func (b *Builder) Build(ctx context.Context, entries []tle.Entry, at time.Time) ([]orbit.Satellite, int, int) {
	if len(entries) == 0 {
		return nil, 0, 0
	}

	jobs := make(chan buildJob, b.workers*2)
	results := make(chan buildResult, b.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := buildSingle(job)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case jobs <- buildJob{entry: entry, at: at}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sats := make([]orbit.Satellite, 0, len(entries))
	var successCount, errorCount int

	for result := range results {
		if result.err != nil {
			errorCount++
			b.logger.Warn("state vector derivation failed",
				"norad_id", result.noradID,
				"error", result.err,
			)
			continue
		}
		successCount++
		sats = append(sats, result.sat)
	}

	return sats, successCount, errorCount
}

// buildSingle initializes SGP4 and derives one satellite's state vector.
func buildSingle(job buildJob) buildResult {
	prop, err := newPropagator(job.entry.Line1, job.entry.Line2, job.entry.NORADID)
	if err != nil {
		return buildResult{noradID: job.entry.NORADID, err: err}
	}

	sat, err := prop.stateAt(job.at)
	if err != nil {
		return buildResult{noradID: job.entry.NORADID, err: err}
	}
	return buildResult{noradID: job.entry.NORADID, sat: sat}
}
