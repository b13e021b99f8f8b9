// Package vision invokes the external vision-capable model and validates
// what comes back.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"appliancecheck/internal/infra"
)

// Image is one photo forwarded to the model.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options controls how the OpenAI client is configured.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client is a thin facade over the OpenAI chat-completions vision endpoint.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	httpClient   *http.Client
	logger       *infra.Logger
}

const defaultTimeout = 90 * time.Second

const defaultModel = "gpt-4o"

// ErrNotConfigured indicates the upstream credential is missing. Handlers
// map it to a configuration error rather than a generic failure.
var ErrNotConfigured = errors.New("vision: api key not configured")

// CallError reports a non-2xx reply from the model API. The upstream status
// code is surfaced; the upstream message is kept for logs only.
type CallError struct {
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("vision: upstream status %d", e.StatusCode)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs an OpenAI vision client with sane defaults. Callers
// may provide a nil HTTP client; a reusable one with a timeout is created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   client,
		logger:       logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Analyze sends the prompt plus every image as one multi-part user message
// and returns the model's text. The call is idempotent, so one retry is
// attempted on transient transport failures.
func (c *Client) Analyze(ctx context.Context, promptText string, images []Image) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload := c.buildPayload(promptText, images)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: marshal request: %w", err)
	}

	text, err := c.invoke(ctx, body)
	if err != nil && retryable(err) && ctx.Err() == nil {
		c.logger.Warn().Err(err).Str("model", c.model).Msg("vision: transient upstream failure, retrying once")
		text, err = c.invoke(ctx, body)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("images", len(images)).
		Int("response_chars", len(text)).
		Msg("vision: analysis received")

	return text, nil
}

func (c *Client) buildPayload(promptText string, images []Image) chatRequest {
	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Type: "text", Text: promptText})
	for _, img := range images {
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", img.ContentType, encoded),
				Detail: "high",
			},
		})
	}

	return chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		MaxTokens:   tokenBudget(len(images)),
		Temperature: 0.7,
	}
}

func (c *Client) invoke(ctx context.Context, body []byte) (string, error) {
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: invoke model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		callErr := &CallError{StatusCode: resp.StatusCode}
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			callErr.Message = apiErr.Error.Message
		}
		return "", callErr
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", &CallError{StatusCode: resp.StatusCode, Message: "no choices in response"}
	}
	return out.Choices[0].Message.Content, nil
}

// tokenBudget scales the completion budget with the image count so multi
// appliance answers are not truncated.
func tokenBudget(imageCount int) int {
	if imageCount > 1 {
		return 2500
	}
	return 1500
}

func retryable(err error) bool {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.StatusCode == http.StatusTooManyRequests || callErr.StatusCode >= http.StatusInternalServerError
	}
	// Transport-level failures (connection reset, EOF) are worth one retry;
	// context cancellation is not.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return strings.Contains(err.Error(), "invoke model")
}
