package infra

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("OpenAIModel = %q, want %q", cfg.OpenAIModel, "gpt-4o")
	}
	if cfg.MaxImages != 5 {
		t.Fatalf("MaxImages = %d, want 5", cfg.MaxImages)
	}
	if cfg.MaxBytesPerImage != 10<<20 {
		t.Fatalf("MaxBytesPerImage = %d, want %d", cfg.MaxBytesPerImage, 10<<20)
	}
	if cfg.MaxBatchBytes != 20<<20 {
		t.Fatalf("MaxBatchBytes = %d, want %d", cfg.MaxBatchBytes, 20<<20)
	}
	if cfg.AnalysisPriceCents != 299 {
		t.Fatalf("AnalysisPriceCents = %d, want 299", cfg.AnalysisPriceCents)
	}
	if cfg.RequirePayment {
		t.Fatal("RequirePayment should default to false")
	}
}

func TestLoadConfigRequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoadConfigRequiresStripeKeyWhenPaymentEnabled(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REQUIRE_PAYMENT", "true")
	t.Setenv("STRIPE_SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when REQUIRE_PAYMENT is set without STRIPE_SECRET_KEY")
	}
}

func TestLoadConfigRejectsPaymentBypassInProduction(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SKIP_PAYMENT_VERIFICATION", "true")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when SKIP_PAYMENT_VERIFICATION is enabled in production")
	}
}

func TestLoadConfigAllowsPaymentBypassInDevelopment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("APP_ENV", "development")
	t.Setenv("SKIP_PAYMENT_VERIFICATION", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.SkipPaymentVerification {
		t.Fatal("SkipPaymentVerification should be honored in development")
	}
}
