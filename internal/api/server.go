package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/analysis"
	"github.com/recepsuluker/OrbitGuardAI/internal/auth"
	"github.com/recepsuluker/OrbitGuardAI/internal/catalog"
	"github.com/recepsuluker/OrbitGuardAI/internal/health"
	"github.com/recepsuluker/OrbitGuardAI/internal/metrics"
	"github.com/recepsuluker/OrbitGuardAI/internal/stream"
	"github.com/recepsuluker/OrbitGuardAI/internal/tle"
)

// Syncer triggers an on-demand TLE catalog refresh.
type Syncer interface {
	SyncOnce(ctx context.Context) (int, error)
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. cat, sync and streamHandler
// may be nil; their routes are then not registered.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, svc *analysis.Service, store *tle.Store, cat *catalog.Catalog, sync Syncer, streamHandler *stream.Handler, webFS fs.FS) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool {
		return store.Get() != nil
	}))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/analysis/conjunctions", conjunctionsHandler(logger, svc))
	mux.HandleFunc("POST /api/v1/analysis/closest", closestHandler(logger, svc))
	mux.HandleFunc("GET /api/v1/analysis/cache/stats", cacheStatsHandler(svc))
	mux.HandleFunc("GET /api/v1/tle/metadata", tleMetadataHandler(store))

	if cat != nil {
		mux.HandleFunc("GET /api/v1/satellites/search", searchHandler(logger, cat))
		mux.HandleFunc("GET /api/v1/catalog/stats", catalogStatsHandler(logger, cat))
		mux.HandleFunc("GET /api/v1/conjunctions/recent", recentConjunctionsHandler(logger, cat))
	}
	if sync != nil {
		mux.HandleFunc("POST /api/v1/tle/fetch", tleFetchHandler(logger, sync))
	}
	if streamHandler != nil {
		mux.HandleFunc("GET /api/v1/stream/alerts", streamHandler.HandleAlerts)
	}
	if webFS != nil {
		mux.Handle("GET /", http.FileServerFS(webFS))
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      0, // SSE streams have no write deadline.
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE streams keep working
// behind the middleware chain.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
