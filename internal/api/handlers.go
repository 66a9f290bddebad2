package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/analysis"
	"github.com/recepsuluker/OrbitGuardAI/internal/catalog"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 200
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// analysisStatus maps an analysis service error to an HTTP status.
func analysisStatus(err error) int {
	if errors.Is(err, analysis.ErrNoDataset) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// conjunctionsRequest is the optional body for POST /api/v1/analysis/conjunctions.
type conjunctionsRequest struct {
	ThresholdKm float64 `json:"threshold_km"`
}

func conjunctionsHandler(logger *slog.Logger, svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conjunctionsRequest
		// An empty body selects the configured default threshold.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		result, err := svc.RunConjunctions(r.Context(), req.ThresholdKm)
		if err != nil {
			logger.Warn("conjunction analysis failed", "error", err)
			writeError(w, analysisStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func closestHandler(logger *slog.Logger, svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.RunClosestApproaches(r.Context())
		if err != nil {
			logger.Warn("closest-approach analysis failed", "error", err)
			writeError(w, analysisStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func cacheStatsHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.CacheStats())
	}
}

func tleMetadataHandler(store *tle.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := store.Get()
		if ds == nil {
			writeError(w, http.StatusServiceUnavailable, "no TLE dataset loaded")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"source":          ds.Source,
			"fetched_at":      ds.FetchedAt.UTC().Format(time.RFC3339),
			"age_seconds":     int(store.AgeSeconds()),
			"satellite_count": len(ds.Satellites),
			"epoch_min":       ds.EpochRange.Min.UTC().Format(time.RFC3339),
			"epoch_max":       ds.EpochRange.Max.UTC().Format(time.RFC3339),
		})
	}
}

func tleFetchHandler(logger *slog.Logger, sync Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := sync.SyncOnce(r.Context())
		if err != nil {
			logger.Error("on-demand TLE sync failed", "error", err)
			writeError(w, http.StatusBadGateway, "TLE sync failed: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"satellite_count": count,
		})
	}
}

// limitParam parses ?limit= with a default and an upper bound.
func limitParam(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func searchHandler(logger *slog.Logger, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		rows, err := cat.Search(query, limitParam(r, defaultSearchLimit, maxSearchLimit))
		if err != nil {
			logger.Error("catalog search failed", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, "catalog search failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query":      query,
			"count":      len(rows),
			"satellites": rows,
		})
	}
}

func catalogStatsHandler(logger *slog.Logger, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cat.Statistics()
		if err != nil {
			logger.Error("catalog statistics failed", "error", err)
			writeError(w, http.StatusInternalServerError, "catalog statistics failed")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func recentConjunctionsHandler(logger *slog.Logger, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := cat.RecentConjunctions(limitParam(r, defaultRecentLimit, maxRecentLimit))
		if err != nil {
			logger.Error("recent conjunctions query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "recent conjunctions query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":  len(rows),
			"events": rows,
		})
	}
}
