package llm

import (
	"context"
	"fmt"
	"sync"

	"careerpath/config"
	"careerpath/internal/port"
)

// Lazy builds the configured provider on the first Complete call. A build
// failure is remembered and reported as port.ErrLLMUnavailable on every call.
type Lazy struct {
	load  func() (port.LLM, error)
	model string

	once sync.Once
	llm  port.LLM
	err  error
}

// NewLazy defers New(cfg) until the model is first used. Construction runs
// detached from the first caller's cancellation.
func NewLazy(ctx context.Context, cfg config.LLMConfig) *Lazy {
	ctx = context.WithoutCancel(ctx)
	model := cfg.Model
	if model == "" {
		model = cfg.Provider
	}
	return &Lazy{
		load:  func() (port.LLM, error) { return New(ctx, cfg) },
		model: model,
	}
}

func (l *Lazy) get() (port.LLM, error) {
	l.once.Do(func() {
		l.llm, l.err = l.load()
		if l.err != nil {
			l.err = fmt.Errorf("%w: %v", port.ErrLLMUnavailable, l.err)
		}
	})
	return l.llm, l.err
}

func (l *Lazy) Complete(ctx context.Context, prompt string) (port.Completion, error) {
	m, err := l.get()
	if err != nil {
		return port.Completion{}, err
	}
	return m.Complete(ctx, prompt)
}

func (l *Lazy) ModelName() string {
	return l.model
}
