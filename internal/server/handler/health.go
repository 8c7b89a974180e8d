package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// CacheStats exposes the cache counters reported by the health endpoint.
type CacheStats interface {
	Pools() int
	PendingOrders() int
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	stats  CacheStats
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler over the given cache stats.
func NewHealthHandler(stats CacheStats, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{stats: stats, logger: logger}
}

// HealthCheck responds with a JSON status including current cache sizes.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"pools":          h.stats.Pools(),
		"pending_orders": h.stats.PendingOrders(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
