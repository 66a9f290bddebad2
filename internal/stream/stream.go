// Package stream pushes conjunction alerts to connected clients over
// Server-Sent Events (SSE).
//
// SSE message format:
//
//	data: {"type":"conjunction_alert","detected_at":"...","conjunctions":[...]}\n\n
//
// The first message on every connection is metadata:
//
//	data: {"type":"metadata","connected_at":"..."}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval so idle
// connections survive intermediate proxies.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/recepsuluker/OrbitGuardAI/internal/metrics"
	"github.com/recepsuluker/OrbitGuardAI/internal/risk"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For for client IPs.
}

// alertMessage is one SSE payload.
type alertMessage struct {
	Type         string       `json:"type"`
	DetectedAt   time.Time    `json:"detected_at,omitempty"`
	ConnectedAt  time.Time    `json:"connected_at,omitempty"`
	Conjunctions []risk.Event `json:"conjunctions,omitempty"`
}

// Handler fans detected conjunction events out to SSE subscribers.
type Handler struct {
	config  Config
	limiter *connLimiter
	logger  *slog.Logger

	mu   sync.Mutex
	subs map[chan alertMessage]struct{}
}

// NewHandler creates a streaming handler.
func NewHandler(config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		config:  config,
		limiter: newConnLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
		subs:    make(map[chan alertMessage]struct{}),
	}
}

// Broadcast sends the events to every connected subscriber. Slow clients
// whose buffers are full miss the batch rather than blocking the analysis.
func (h *Handler) Broadcast(events []risk.Event, at time.Time) {
	if len(events) == 0 {
		return
	}
	msg := alertMessage{Type: "conjunction_alert", DetectedAt: at, Conjunctions: events}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("dropping alert batch for slow stream client")
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Handler) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Handler) subscribe() chan alertMessage {
	ch := make(chan alertMessage, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Handler) unsubscribe(ch chan alertMessage) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleAlerts serves the SSE alert stream.
// GET /api/v1/stream/alerts
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		h.logger.Warn("stream limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}
	defer h.limiter.release(ip)

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming unsupported"})
		return
	}

	metrics.StreamClientConnected(1)
	start := time.Now()
	h.logger.Info("alert stream connected", "remote_ip", ip)

	ch := h.subscribe()
	defer func() {
		h.unsubscribe(ch)
		metrics.StreamClientConnected(-1)
		h.logger.Info("alert stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(start).Seconds()),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeMessage(w, alertMessage{Type: "metadata", ConnectedAt: time.Now().UTC()}); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case msg := <-ch:
			if err := writeMessage(w, msg); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := w.Write([]byte(":\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeMessage(w http.ResponseWriter, msg alertMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
