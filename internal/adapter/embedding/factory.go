package embedding

import (
	"fmt"
	"strings"

	"careerpath/config"
	"careerpath/internal/port"
)

// New returns a lazily loaded encoder for cfg.
func New(cfg config.EmbeddingConfig) (port.Encoder, error) {
	provider := strings.ToLower(cfg.Provider)
	model := cfg.Model

	switch provider {
	case "", "hash":
		enc := NewHashEncoder(cfg.Dimension)
		return enc, nil
	case "ollama":
		if model == "" {
			model = "all-minilm"
		}
		dim := knownDimension(model, cfg.Dimension)
		return NewLazy(dim, model, func() (port.Encoder, error) {
			return NewOllamaEncoder(model, cfg.BaseURL).WithBatchSize(cfg.BatchSize), nil
		}), nil
	case "openai", "jina":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
			if provider == "jina" {
				baseURL = "https://api.jina.ai/v1"
			}
		}
		dim := cfg.Dimension
		if dim <= 0 {
			dim = knownDimension(model, 1536)
		}
		return NewLazy(dim, model, func() (port.Encoder, error) {
			enc, err := NewOpenAICompatibleEncoder(config.Secret(cfg.APIKeyEnv), model, baseURL, dim)
			if err != nil {
				return nil, err
			}
			return enc.WithBatchSize(cfg.BatchSize), nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
