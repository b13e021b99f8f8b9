package handlers

import "net/http"

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
}

// CreatePaymentIntent handles POST /create-payment-intent. The browser calls
// it before upload when the payment gate is on; the returned client secret
// drives the Stripe card form.
func (a *App) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if a.Payments == nil {
		a.error(w, http.StatusServiceUnavailable, "Payments are not enabled")
		return
	}

	intent, err := a.Payments.CreateIntent(r.Context(), a.Config.AnalysisPriceCents, a.Config.AnalysisCurrency)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create payment intent failed")
		a.error(w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	a.json(w, http.StatusOK, paymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
	})
}
