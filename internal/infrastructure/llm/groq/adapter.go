// Package groq adapts the Groq chat-completions API (OpenAI-compatible) to
// the application's LLMPort. Provider failures are classified into
// *entity.AIError; nothing is retried here.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"interactai/internal/application/port/output"
	"interactai/internal/domain/entity"
)

const (
	keyPrefix    = "gsk_"
	defaultModel = "llama-3.1-8b-instant"
)

var _ output.LLMPort = (*GroqAdapter)(nil)

type GroqAdapter struct {
	settings   output.SettingsStore
	model      string
	baseURL    string
	httpClient *http.Client
	logger     output.LoggerPort
}

type Config struct {
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		Model:   defaultModel,
		BaseURL: "https://api.groq.com/openai/v1",
	}
}

// NewGroqAdapter reads the credential from the settings store per call, so
// a key saved at runtime takes effect without a restart.
func NewGroqAdapter(settings output.SettingsStore, cfg Config) *GroqAdapter {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	return &GroqAdapter{
		settings:   settings,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     cfg.Logger,
	}
}

func (a *GroqAdapter) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	client, err := a.client(ctx)
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	if a.logger != nil {
		a.logger.Debug("Chat completion finished",
			"model", a.model,
			"durationMs", time.Since(start).Milliseconds(),
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens)
	}

	if len(resp.Choices) == 0 {
		return "", entity.NewAIError(entity.AIErrAPI, 0, "Empty response from the AI service.", "Try again.")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ValidateKey makes a minimal one-token round trip with the stored key.
func (a *GroqAdapter) ValidateKey(ctx context.Context) error {
	client, err := a.client(ctx)
	if err != nil {
		return err
	}

	_, err = client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// client builds a per-call client around the stored key. Malformed keys
// fail fast, before any network traffic.
func (a *GroqAdapter) client(ctx context.Context) (*openai.Client, error) {
	key, err := a.settings.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("read api key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" || !strings.HasPrefix(key, keyPrefix) {
		return nil, entity.NewAIError(entity.AIErrMissingKey, 0,
			"Invalid API key.", "Please save your Groq API key first (it starts with 'gsk_').")
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = a.baseURL
	cfg.HTTPClient = a.httpClient
	return openai.NewClientWithConfig(cfg), nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewAIError(entity.AIErrTimeout, 0,
			"The AI request timed out.", "Try a shorter command or try again.")
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return entity.NewAIError(entity.AIErrInvalidKey, apiErr.HTTPStatusCode,
				"Invalid API key.", "Please check your Groq API key.")
		case http.StatusTooManyRequests:
			return entity.NewAIError(entity.AIErrRateLimited, apiErr.HTTPStatusCode,
				"Rate limit exceeded.", "Please wait a moment and try again.")
		case http.StatusServiceUnavailable:
			return entity.NewAIError(entity.AIErrModelLoading, apiErr.HTTPStatusCode,
				"Model is loading.", "Please wait 20 seconds and try again.")
		default:
			return entity.NewAIError(entity.AIErrAPI, apiErr.HTTPStatusCode,
				fmt.Sprintf("API error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message), "")
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return entity.NewAIError(entity.AIErrAPI, reqErr.HTTPStatusCode,
			fmt.Sprintf("API error (%d): %v", reqErr.HTTPStatusCode, reqErr.Err), "")
	}

	return entity.NewAIError(entity.AIErrAPI, 0, fmt.Sprintf("AI request failed: %v", err), "")
}
