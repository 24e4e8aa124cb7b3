package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 3 * time.Second

// HealthHandler reports store and face service availability
type HealthHandler struct {
	pingStore   func(ctx context.Context) error
	faceService func(ctx context.Context) error
}

// NewHealthHandler creates a new health handler; either check may be nil
func NewHealthHandler(pingStore, faceService func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{pingStore: pingStore, faceService: faceService}
}

func check(ctx context.Context, name string, fn func(ctx context.Context) error) string {
	if fn == nil {
		return "unknown"
	}
	if err := fn(ctx); err != nil {
		slog.Warn("health check failed", "component", name, "error", err)
		return "error"
	}
	return "ok"
}

// Health answers 503 when the store is unreachable; a missing face service only degrades
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := map[string]string{
		"status":       "ok",
		"database":     check(ctx, "database", h.pingStore),
		"face_service": check(ctx, "face_service", h.faceService),
	}
	status := http.StatusOK
	switch {
	case resp["database"] == "error":
		resp["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	case resp["face_service"] == "error":
		resp["status"] = "degraded"
	}
	respondJSON(w, status, resp)
}
