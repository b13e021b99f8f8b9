package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string

	StripeSecretKey      string
	StripePublishableKey string
	RequirePayment       bool
	// SkipPaymentVerification is a development-only switch. LoadConfig
	// refuses to start when it is set in production.
	SkipPaymentVerification bool
	AnalysisPriceCents      int64
	AnalysisCurrency        string

	MaxImages        int
	MaxBytesPerImage int64
	MaxBatchBytes    int64
	PromptVersion    int

	// StagingDir, when set, stages uploads to local disk for the lifetime
	// of the request (non-serverless deployments). Empty keeps everything
	// in memory.
	StagingDir string

	UpstreamTimeout  time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),

		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey:    os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		RequirePayment:          getEnvBool("REQUIRE_PAYMENT", false),
		SkipPaymentVerification: getEnvBool("SKIP_PAYMENT_VERIFICATION", false),
		AnalysisPriceCents:      int64(getEnvInt("ANALYSIS_PRICE_CENTS", 299)),
		AnalysisCurrency:        getEnv("ANALYSIS_CURRENCY", "usd"),

		MaxImages:        getEnvInt("MAX_IMAGES", 5),
		MaxBytesPerImage: int64(getEnvInt("MAX_BYTES_PER_IMAGE", 10<<20)),
		MaxBatchBytes:    int64(getEnvInt("MAX_BATCH_BYTES", 20<<20)),
		PromptVersion:    getEnvInt("PROMPT_TEMPLATE_VERSION", 1),

		StagingDir: os.Getenv("UPLOAD_STAGING_DIR"),

		UpstreamTimeout:  time.Second * time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 90)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.RequirePayment && cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when REQUIRE_PAYMENT is enabled")
	}

	// An unauthenticated payment bypass must never reach production.
	if cfg.SkipPaymentVerification && cfg.AppEnv == "production" {
		return nil, fmt.Errorf("SKIP_PAYMENT_VERIFICATION cannot be enabled when APP_ENV=production")
	}

	if cfg.MaxImages <= 0 || cfg.MaxBytesPerImage <= 0 || cfg.MaxBatchBytes <= 0 {
		return nil, fmt.Errorf("image limits must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
