// internal/delivery/rest/health.go
package rest

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 3 * time.Second

type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]componentHealth `json:"components"`
}

// GET /health: критичный компонент недоступен -> 503, некритичный -> degraded
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Components: make(map[string]componentHealth, len(h.deps.HealthChecks)),
	}

	healthy := true
	for _, hc := range h.deps.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			status := "degraded"
			if hc.Critical {
				status = "unhealthy"
				healthy = false
			}
			resp.Components[hc.Name] = componentHealth{Status: status, Message: err.Error()}
			continue
		}
		resp.Components[hc.Name] = componentHealth{Status: "healthy", Message: hc.Name + " connection successful"}
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
