package port

import (
	"context"
	"errors"
)

// Completion is a single model reply with any reasoning segment split off.
type Completion struct {
	Text         string
	Reasoning    string
	HadReasoning bool
}

// LLM represents a language model for single-turn text generation.
type LLM interface {
	// Complete sends the prompt and returns the model's reply.
	Complete(ctx context.Context, prompt string) (Completion, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// ErrLLMUnavailable is returned when no language model could be constructed,
// for example because its API key is not set.
var ErrLLMUnavailable = errors.New("language model unavailable")
