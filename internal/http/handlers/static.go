package handlers

import (
	"net/http"

	"appliancecheck/web"
)

type clientConfig struct {
	RequirePayment       bool   `json:"requirePayment"`
	StripePublishableKey string `json:"stripePublishableKey,omitempty"`
	PriceCents           int64  `json:"priceCents"`
	Currency             string `json:"currency"`
	MaxImages            int    `json:"maxImages"`
	MaxBytesPerImage     int64  `json:"maxBytesPerImage"`
	PromptVersion        int    `json:"promptVersion"`
}

// ClientConfig handles GET /config: the browser reads the payment switch and
// upload caps from here instead of having them baked into the page.
func (a *App) ClientConfig(w http.ResponseWriter, r *http.Request) {
	cfg := clientConfig{
		RequirePayment:   a.Service.PaymentRequired(),
		PriceCents:       a.Config.AnalysisPriceCents,
		Currency:         a.Config.AnalysisCurrency,
		MaxImages:        a.Config.MaxImages,
		MaxBytesPerImage: a.Config.MaxBytesPerImage,
		PromptVersion:    a.Config.PromptVersion,
	}
	if cfg.RequirePayment {
		cfg.StripePublishableKey = a.Config.StripePublishableKey
	}
	a.json(w, http.StatusOK, cfg)
}

// StaticHandler serves the embedded front-end.
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(web.Static()))
}
