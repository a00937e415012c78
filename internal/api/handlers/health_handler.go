package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is implemented by dependencies that can report readiness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	service string
	version string
	checks  map[string]HealthChecker
}

func NewHealthHandler(service, version string, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: checks}
}

// Health is the liveness check.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": h.service, "version": h.version})
}

// Ready runs every dependency check.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.Health(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": results})
}
