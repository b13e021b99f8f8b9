package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"appliancecheck/internal/analysis"
	"appliancecheck/internal/infra"
	"appliancecheck/internal/payment"
	"appliancecheck/internal/vision"
)

const modelReply = `## 🔍 APPLIANCE IDENTIFICATION
**Type:** Top-load washer
**Brand:** Whirlpool

## 📅 AGE ESTIMATE
**Estimated Age:** 5-7 years old

This unit shows moderate wear consistent with regular household use. The
control panel styling and serial format point to a mid-2010s production run,
and the drum assembly matches the generation sold through big-box retailers.`

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (m *fakeModel) Analyze(ctx context.Context, promptText string, images []vision.Image) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type fakePayments struct {
	verifyErr error
}

func (p *fakePayments) CreateIntent(ctx context.Context, amountCents int64, currency string) (*payment.Intent, error) {
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: amountCents, Status: "requires_payment_method"}, nil
}

func (p *fakePayments) VerifyIntent(ctx context.Context, id string) error {
	return p.verifyErr
}

var _ payment.Processor = (*fakePayments)(nil)

func testConfig() *infra.Config {
	return &infra.Config{
		AppEnv:             "test",
		AnalysisPriceCents: 299,
		AnalysisCurrency:   "usd",
		MaxImages:          5,
		MaxBytesPerImage:   10 << 20,
		MaxBatchBytes:      20 << 20,
		PromptVersion:      1,
		UpstreamTimeout:    30 * time.Second,
	}
}

func newTestApp(t *testing.T, model analysis.ModelClient, payments payment.Processor) *App {
	t.Helper()
	cfg := testConfig()
	service := analysis.NewService(analysis.Options{
		Limits: analysis.Limits{
			MaxImages:        cfg.MaxImages,
			MaxBytesPerImage: cfg.MaxBytesPerImage,
			MaxBatchBytes:    cfg.MaxBatchBytes,
		},
		Model:    model,
		Payments: payments,
		Logger:   zerolog.Nop(),
	})
	return NewApp(cfg, zerolog.Nop(), service, payments)
}

// multipartBody builds an upload body with the given photo names plus extra
// plain form fields.
func multipartBody(t *testing.T, photos map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range photos {
		part, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

// jpegBytes is a minimal JPEG header so content sniffing sees an image.
func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x01}, 64)...)
}

func doAnalyze(t *testing.T, app *App, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Analyze(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestAnalyzeSuccess(t *testing.T) {
	model := &fakeModel{reply: modelReply}
	app := newTestApp(t, model, nil)

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatal("expected success true")
	}
	if body["fileCount"] != float64(1) {
		t.Fatalf("fileCount = %v, want 1", body["fileCount"])
	}
	if body["hasCustomQuestion"] != false {
		t.Fatal("expected hasCustomQuestion false")
	}
	text, _ := body["analysis"].(string)
	if !strings.Contains(text, "EstimateMyFix.com") || !strings.Contains(text, "FreeLocalAppliancePickup.com") {
		t.Fatal("promotional block missing from analysis")
	}
	htmlOut, _ := body["analysisHtml"].(string)
	if !strings.Contains(htmlOut, `<div class="analysis">`) {
		t.Fatal("rendered fragment missing from response")
	}
	if model.calls != 1 {
		t.Fatalf("model calls = %d, want 1", model.calls)
	}
}

func TestAnalyzeQuestionFromQueryParam(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: modelReply}, nil)

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze?custom_question=is+it+worth+fixing", buf, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["hasCustomQuestion"] != true {
		t.Fatal("question from query parameter not picked up")
	}
}

func TestAnalyzeNoFiles(t *testing.T) {
	model := &fakeModel{reply: modelReply}
	app := newTestApp(t, model, nil)

	buf, contentType := multipartBody(t, nil, map[string]string{"note": "hi"})
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if model.calls != 0 {
		t.Fatal("model must not be called for an empty batch")
	}
}

func TestAnalyzeRejectsNonImage(t *testing.T) {
	model := &fakeModel{reply: modelReply}
	app := newTestApp(t, model, nil)

	photos := map[string][]byte{"notes.txt": []byte("plain text, definitely not an image")}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "notes.txt") {
		t.Fatalf("error should name the offending file: %q", msg)
	}
	if model.calls != 0 {
		t.Fatal("model must not be called for invalid input")
	}
}

func TestAnalyzeNotMultipart(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: modelReply}, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"photos":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzePaymentGate(t *testing.T) {
	t.Run("missing reference", func(t *testing.T) {
		model := &fakeModel{reply: modelReply}
		app := newTestApp(t, model, &fakePayments{})

		photos := map[string][]byte{"washer.jpg": jpegBytes()}
		buf, contentType := multipartBody(t, photos, nil)
		rec := doAnalyze(t, app, "/analyze", buf, contentType)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("status = %d, want 402", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["requiresPayment"] != true {
			t.Fatal("response must flag requiresPayment")
		}
		if model.calls != 0 {
			t.Fatal("model must not be called before payment")
		}
	})

	t.Run("unverified reference", func(t *testing.T) {
		model := &fakeModel{reply: modelReply}
		app := newTestApp(t, model, &fakePayments{verifyErr: payment.ErrNotSucceeded})

		photos := map[string][]byte{"washer.jpg": jpegBytes()}
		buf, contentType := multipartBody(t, photos, map[string]string{"payment_intent_id": "pi_123"})
		rec := doAnalyze(t, app, "/analyze", buf, contentType)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("status = %d, want 402", rec.Code)
		}
		if model.calls != 0 {
			t.Fatal("model must not be called for an unverified payment")
		}
	})

	t.Run("verified reference", func(t *testing.T) {
		app := newTestApp(t, &fakeModel{reply: modelReply}, &fakePayments{})

		photos := map[string][]byte{"washer.jpg": jpegBytes()}
		buf, contentType := multipartBody(t, photos, map[string]string{"payment_intent_id": "pi_123"})
		rec := doAnalyze(t, app, "/analyze", buf, contentType)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	app := newTestApp(t, &fakeModel{err: &vision.CallError{StatusCode: 502, Message: "bad gateway"}}, nil)

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to analyze appliance" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestAnalyzeMissingCredentials(t *testing.T) {
	app := newTestApp(t, &fakeModel{err: vision.ErrNotConfigured}, nil)

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "Analysis service is not configured" {
		t.Fatal("misconfiguration must be reported distinctly")
	}
}

func TestAnalyzeInsufficientReply(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: "I'm sorry, I can't assist with that."}, nil)

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, nil)
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to analyze appliance") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: modelReply}, &fakePayments{})

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", nil)
	rec := httptest.NewRecorder()
	app.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["clientSecret"] != "pi_test_secret" {
		t.Fatalf("clientSecret = %v", body["clientSecret"])
	}
	if body["amount"] != float64(299) {
		t.Fatalf("amount = %v, want 299", body["amount"])
	}
}

func TestCreatePaymentIntentDisabled(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: modelReply}, nil)

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", nil)
	rec := httptest.NewRecorder()
	app.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &fakeModel{reply: modelReply}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "OK" {
		t.Fatalf("status field = %v", body["status"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Fatal("timestamp missing")
	}
}

func TestClientConfig(t *testing.T) {
	t.Run("payments on", func(t *testing.T) {
		app := newTestApp(t, &fakeModel{reply: modelReply}, &fakePayments{})
		app.Config.StripePublishableKey = "pk_test_123"

		req := httptest.NewRequest(http.MethodGet, "/config", nil)
		rec := httptest.NewRecorder()
		app.ClientConfig(rec, req)

		body := decodeBody(t, rec)
		if body["requirePayment"] != true {
			t.Fatal("requirePayment should be true")
		}
		if body["stripePublishableKey"] != "pk_test_123" {
			t.Fatalf("publishable key = %v", body["stripePublishableKey"])
		}
	})

	t.Run("payments off", func(t *testing.T) {
		app := newTestApp(t, &fakeModel{reply: modelReply}, nil)

		req := httptest.NewRequest(http.MethodGet, "/config", nil)
		rec := httptest.NewRecorder()
		app.ClientConfig(rec, req)

		body := decodeBody(t, rec)
		if body["requirePayment"] != false {
			t.Fatal("requirePayment should be false")
		}
		if _, present := body["stripePublishableKey"]; present {
			t.Fatal("publishable key must be omitted when payments are off")
		}
		if body["promptVersion"] != float64(1) {
			t.Fatalf("promptVersion = %v, want 1", body["promptVersion"])
		}
	})
}

func TestAnalyzeVerifyErrorWrapped(t *testing.T) {
	model := &fakeModel{reply: modelReply}
	app := newTestApp(t, model, &fakePayments{verifyErr: errors.New("stripe unreachable")})

	photos := map[string][]byte{"washer.jpg": jpegBytes()}
	buf, contentType := multipartBody(t, photos, map[string]string{"payment_intent_id": "pi_123"})
	rec := doAnalyze(t, app, "/analyze", buf, contentType)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "stripe unreachable") {
		t.Fatal("processor error detail must not leak to the client")
	}
}
