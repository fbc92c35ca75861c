package llm

import (
	"context"
	"fmt"
	"strings"

	"careerpath/config"
	"careerpath/internal/port"
)

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (port.LLM, error) {
	apiKey := config.Secret(cfg.APIKeyEnv)

	switch strings.ToLower(cfg.Provider) {
	case "", "groq":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return newOpenAI(apiKey, baseURL, cfg)
	case "openai":
		return newOpenAI(apiKey, cfg.BaseURL, cfg)
	case "gemini":
		g, err := NewGemini(ctx, apiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func newOpenAI(apiKey, baseURL string, cfg config.LLMConfig) (port.LLM, error) {
	m, err := NewOpenAIModel(OpenAIConfig{
		APIKey:    apiKey,
		BaseURL:   baseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
