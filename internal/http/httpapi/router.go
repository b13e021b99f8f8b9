package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"appliancecheck/internal/http/handlers"
	"appliancecheck/internal/infra"
	"appliancecheck/internal/middleware"
)

// NewRouter wires the middleware chain and routes.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/health", app.Health)
	r.Get("/config", app.ClientConfig)
	r.Post("/analyze", app.Analyze)
	r.Post("/create-payment-intent", app.CreatePaymentIntent)

	r.Handle("/*", handlers.StaticHandler())

	return r
}
