package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIEncoder calls an OpenAI-compatible /embeddings endpoint. Ollama, Jina
// and OpenAI itself all speak this protocol.
type OpenAIEncoder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEncoder(apiKey, model string, dimension int) (*OpenAIEncoder, error) {
	return NewOpenAICompatibleEncoder(apiKey, model, "https://api.openai.com/v1", dimension)
}

func NewJinaEncoder(apiKey, model string, dimension int) (*OpenAIEncoder, error) {
	return NewOpenAICompatibleEncoder(apiKey, model, "https://api.jina.ai/v1", dimension)
}

// NewOllamaEncoder targets a local Ollama server. all-minilm is the model
// the sample index is built with.
func NewOllamaEncoder(model, baseURL string) *OpenAIEncoder {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "all-minilm"
	}

	return &OpenAIEncoder{
		apiKey:    "ollama",
		model:     model,
		baseURL:   baseURL,
		dimension: knownDimension(model, 768),
		batchSize: 100,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func NewOpenAICompatibleEncoder(apiKey, model, baseURL string, dimension int) (*OpenAIEncoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for embedding model %s", model)
	}
	if dimension <= 0 {
		dimension = knownDimension(model, 1536)
	}

	return &OpenAIEncoder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		batchSize: 100,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func knownDimension(model string, fallback int) int {
	switch model {
	case "all-minilm":
		return 384
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "jina-embeddings-v3":
		return 1024
	}
	return fallback
}

// WithBatchSize caps how many texts are sent per request.
func (e *OpenAIEncoder) WithBatchSize(n int) *OpenAIEncoder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

func (e *OpenAIEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		embeddings, err := e.encodeBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

func (e *OpenAIEncoder) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{Input: texts, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("API returned no embedding for input %d", i)
		}
	}

	return embeddings, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func (e *OpenAIEncoder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEncoder) ModelName() string {
	return e.model
}
