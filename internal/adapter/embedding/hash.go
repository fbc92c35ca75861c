package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"careerpath/internal/adapter/analyzer"
)

// HashEncoder is a deterministic, offline encoder based on feature hashing.
// Each lower-cased token and adjacent token pair is hashed into a bucket, and
// the result is L2-normalized, so texts sharing vocabulary land close together
// under cosine distance.
type HashEncoder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEncoder(dimension int) *HashEncoder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEncoder{dimension: dimension, tokenizer: analyzer.NewTokenizer(true)}
}

func (e *HashEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashEncoder) vector(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := e.tokenizer.Tokenize(text)

	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashEncoder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashEncoder) Dimension() int {
	return e.dimension
}

func (e *HashEncoder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
