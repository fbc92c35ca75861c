package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"careerpath/internal/port"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini wraps the Google GenAI client for single-turn prompts.
type Gemini struct {
	client    *genai.Client
	modelName string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{client: client, modelName: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (port.Completion, error) {
	if g == nil || g.client == nil {
		return port.Completion{}, errors.New("gemini client is not initialized")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		return port.Completion{}, fmt.Errorf("generate content: %w", err)
	}

	var text, thoughts strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			b := &text
			if part.Thought {
				b = &thoughts
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(strings.TrimSpace(part.Text))
		}
	}

	c := SplitReasoning(text.String())
	if thoughts.Len() > 0 {
		c.Reasoning = strings.TrimSpace(thoughts.String() + "\n" + c.Reasoning)
		c.HadReasoning = true
	}
	return c, nil
}

func (g *Gemini) ModelName() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
