package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"careerpath/internal/port"
)

const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	defaultMaxTokens = 1024
	maxRetries       = 2
	initBackoff      = 500 * time.Millisecond
)

// OpenAIModel talks to any OpenAI-compatible chat completions endpoint.
// Groq is the default deployment.
type OpenAIModel struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// OpenAIConfig holds configuration for the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // Optional custom endpoint
	Model     string
	MaxTokens int
}

func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required for openai-compatible provider")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required for openai-compatible provider")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return &OpenAIModel{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (m *OpenAIModel) Complete(ctx context.Context, prompt string) (port.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(m.model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		MaxTokens: openai.Int(int64(m.maxTokens)),
	}

	var resp *openai.ChatCompletion
	var err error
	backoff := initBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = m.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if !isRetryableError(err) || attempt == maxRetries {
			return port.Completion{}, fmt.Errorf("chat completion failed: %w", err)
		}

		select {
		case <-ctx.Done():
			return port.Completion{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if len(resp.Choices) == 0 {
		return port.Completion{}, errors.New("chat completion returned no choices")
	}
	return SplitReasoning(resp.Choices[0].Message.Content), nil
}

func (m *OpenAIModel) ModelName() string {
	return m.model
}

// isRetryableError reports rate limits and server-side failures.
func isRetryableError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "connection reset")
}
