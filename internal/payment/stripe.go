// Package payment fronts the card-payment processor. Analysis is gated on a
// payment intent reaching the succeeded status; the gateway re-verifies the
// status on every call and never marks intents as consumed.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Intent is the subset of the processor's record the gateway cares about.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Status       string
}

// Processor creates and verifies payment intents. Handlers depend on this
// interface so tests can stub the processor.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error)
	VerifyIntent(ctx context.Context, id string) error
}

// ErrNotSucceeded indicates the referenced intent exists but has not
// completed.
var ErrNotSucceeded = errors.New("payment: intent has not succeeded")

// StripeProcessor implements Processor against the Stripe API.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor builds a processor from a secret key.
func NewStripeProcessor(secretKey string) (*StripeProcessor, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("payment: stripe secret key is required")
	}
	return &StripeProcessor{api: client.New(secretKey, nil)}, nil
}

// CreateIntent opens a new payment intent for one analysis.
func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(currency),
		Description: stripe.String("Appliance Age Analysis"),
	}
	params.AddMetadata("service", "appliance_analysis")

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Status:       string(pi.Status),
	}, nil
}

// VerifyIntent resolves the intent by ID and returns ErrNotSucceeded unless
// its status is succeeded. Lookup failures are returned as-is so callers can
// treat them as unverified.
func (p *StripeProcessor) VerifyIntent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("payment: intent id is required")
	}
	pi, err := p.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return fmt.Errorf("payment: lookup intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: status %s", ErrNotSucceeded, pi.Status)
	}
	return nil
}

var _ Processor = (*StripeProcessor)(nil)
