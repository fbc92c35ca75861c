package embedding

import (
	"context"
	"sync"

	"careerpath/internal/port"
)

// Lazy defers construction of an encoder until the first Encode call.
// Concurrent first callers block on the same load and share its outcome.
type Lazy struct {
	load      func() (port.Encoder, error)
	dimension int
	model     string

	once sync.Once
	enc  port.Encoder
	err  error
}

// NewLazy wraps load. dimension and model are reported before loading so
// callers can validate a collection without paying for the model.
func NewLazy(dimension int, model string, load func() (port.Encoder, error)) *Lazy {
	return &Lazy{load: load, dimension: dimension, model: model}
}

func (l *Lazy) get() (port.Encoder, error) {
	l.once.Do(func() {
		l.enc, l.err = l.load()
	})
	return l.enc, l.err
}

func (l *Lazy) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	enc, err := l.get()
	if err != nil {
		return nil, err
	}
	return enc.Encode(ctx, texts)
}

func (l *Lazy) Dimension() int {
	return l.dimension
}

func (l *Lazy) ModelName() string {
	return l.model
}
