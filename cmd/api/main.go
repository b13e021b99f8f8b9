package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"appliancecheck/internal/analysis"
	"appliancecheck/internal/http/handlers"
	"appliancecheck/internal/http/httpapi"
	"appliancecheck/internal/infra"
	"appliancecheck/internal/payment"
	"appliancecheck/internal/prompt"
	"appliancecheck/internal/storage"
	"appliancecheck/internal/vision"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if !prompt.Supported(cfg.PromptVersion) {
		logger.Fatal().Int("configured", cfg.PromptVersion).Int("supported", prompt.Version).
			Msg("unsupported prompt template version")
	}

	// Payment gate: only wired when enabled, so development runs without
	// Stripe credentials.
	var payments payment.Processor
	if cfg.RequirePayment && !cfg.SkipPaymentVerification {
		processor, err := payment.NewStripeProcessor(cfg.StripeSecretKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure payments")
		}
		payments = processor
	} else if cfg.SkipPaymentVerification {
		logger.Warn().Msg("payment verification disabled")
	}

	model := vision.NewClient(vision.Options{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Logger:       &logger,
	})

	var staging *storage.Staging
	if cfg.StagingDir != "" {
		staging, err = storage.NewStaging(cfg.StagingDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare staging dir")
		}
		logger.Info().Str("dir", staging.BasePath()).Msg("staging uploads to disk")
	}

	service := analysis.NewService(analysis.Options{
		Limits: analysis.Limits{
			MaxImages:        cfg.MaxImages,
			MaxBytesPerImage: cfg.MaxBytesPerImage,
			MaxBatchBytes:    cfg.MaxBatchBytes,
		},
		Model:    model,
		Payments: payments,
		Staging:  staging,
		Logger:   logger,
	})

	app := handlers.NewApp(cfg, logger, service, payments)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("model", model.Model()).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
