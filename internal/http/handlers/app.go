package handlers

import (
	"encoding/json"
	"net/http"

	"appliancecheck/internal/analysis"
	"appliancecheck/internal/infra"
	"appliancecheck/internal/payment"
)

// App bundles the dependencies shared by the HTTP handlers.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Service  *analysis.Service
	Payments payment.Processor
}

// NewApp builds the handler container.
func NewApp(cfg *infra.Config, logger infra.Logger, service *analysis.Service, payments payment.Processor) *App {
	return &App{Config: cfg, Logger: logger, Service: service, Payments: payments}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]any{"error": message})
}

func (a *App) errorWithDetails(w http.ResponseWriter, code int, message, details string) {
	a.json(w, code, map[string]any{"error": message, "details": details})
}

// MethodNotAllowed is installed as the router-wide fallback for unexpected
// methods.
func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
