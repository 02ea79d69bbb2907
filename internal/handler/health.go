package handler

import (
	"context"
	"net/http"
	"time"

	"streamify/internal/httputil"
	"streamify/internal/logging"
)

// Pinger is implemented by the backing stores the health check probes.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check handles GET /healthcheck. It answers 503 when any dependency is down.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := healthStatus{Status: "OK", Checks: make(map[string]string, len(h.checks))}
	healthy := true
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			logging.Component(ctx, "health").Warn("dependency unhealthy", "dependency", name, "error", err)
			status.Checks[name] = "down"
			healthy = false
			continue
		}
		status.Checks[name] = "up"
	}

	if !healthy {
		status.Status = "DEGRADED"
		httputil.WriteSuccess(w, http.StatusServiceUnavailable, status, "Service degraded")
		return
	}
	httputil.WriteOK(w, status, "Health check passed")
}
