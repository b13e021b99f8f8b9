package analysis

import (
	"context"
	"strings"

	"appliancecheck/internal/infra"
	"appliancecheck/internal/payment"
	"appliancecheck/internal/prompt"
	"appliancecheck/internal/storage"
	"appliancecheck/internal/vision"
)

// ModelClient is the single upstream dependency of the pipeline.
type ModelClient interface {
	Analyze(ctx context.Context, promptText string, images []vision.Image) (string, error)
}

// Service turns one validated image batch plus optional question into one
// validated analysis string. Per request it walks
// ValidatingInput → PaymentCheck → BuildingPrompt → CallingModel →
// ValidatingResponse → Responding, failing fast at every step.
type Service struct {
	limits    Limits
	model     ModelClient
	payments  payment.Processor
	validator *vision.Validator
	staging   *storage.Staging
	logger    infra.Logger
}

// Options wires the service. Payments of nil disables the payment gate;
// Staging of nil keeps uploads in memory.
type Options struct {
	Limits    Limits
	Model     ModelClient
	Payments  payment.Processor
	Validator *vision.Validator
	Staging   *storage.Staging
	Logger    infra.Logger
}

// NewService constructs the pipeline.
func NewService(opts Options) *Service {
	validator := opts.Validator
	if validator == nil {
		validator = vision.NewValidator()
	}
	return &Service{
		limits:    opts.Limits,
		model:     opts.Model,
		payments:  opts.Payments,
		validator: validator,
		staging:   opts.Staging,
		logger:    opts.Logger,
	}
}

// PaymentRequired reports whether the payment gate is active.
func (s *Service) PaymentRequired() bool {
	return s.payments != nil
}

// Analyze runs the pipeline for one batch.
func (s *Service) Analyze(ctx context.Context, batch Batch) (*Result, error) {
	if err := s.limits.Validate(batch); err != nil {
		return nil, err
	}

	// The payment gate runs before any upstream call so a declined or
	// missing payment never incurs model usage.
	if s.payments != nil {
		if strings.TrimSpace(batch.PaymentIntentID) == "" {
			return nil, &PaymentRequiredError{Reason: "Payment required before analysis"}
		}
		if err := s.payments.VerifyIntent(ctx, batch.PaymentIntentID); err != nil {
			s.logger.Warn().Err(err).Msg("analysis: payment verification failed")
			return nil, &PaymentRequiredError{Reason: "Payment verification failed. Please try payment again."}
		}
	}

	if s.staging != nil {
		blobs := make([][]byte, len(batch.Images))
		for i, img := range batch.Images {
			blobs[i] = img.Data
		}
		cleanup, err := s.staging.Stage(blobs)
		if err != nil {
			return nil, err
		}
		defer cleanup()
	}

	promptText := prompt.Build(len(batch.Images), batch.Question)

	images := make([]vision.Image, len(batch.Images))
	for i, img := range batch.Images {
		images[i] = vision.Image{Name: img.Name, ContentType: img.ContentType, Data: img.Data}
	}

	text, err := s.model.Analyze(ctx, promptText, images)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Check(text); err != nil {
		s.logger.Warn().Err(err).Int("response_chars", len(text)).Msg("analysis: model response rejected")
		return nil, err
	}

	s.logger.Info().
		Int("file_count", len(batch.Images)).
		Bool("has_question", strings.TrimSpace(batch.Question) != "").
		Msg("analysis: completed")

	return &Result{
		Text:        AppendPromo(text),
		FileCount:   len(batch.Images),
		HasQuestion: strings.TrimSpace(batch.Question) != "",
	}, nil
}
