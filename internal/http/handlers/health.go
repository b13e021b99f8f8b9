package handlers

import (
	"net/http"
	"time"
)

// Health handles GET /health for load-balancer and uptime probes.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
