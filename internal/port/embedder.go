package port

import "context"

// Encoder generates vector embeddings for text.
type Encoder interface {
	// Encode generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
