package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"careerpath/config"
	"careerpath/internal/port"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEncoder_Deterministic(t *testing.T) {
	enc := NewHashEncoder(64)
	ctx := context.Background()

	a, err := enc.Encode(ctx, []string{"Skills: Python, SQL"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := enc.Encode(ctx, []string{"Skills: Python, SQL"})
	if err != nil {
		t.Fatal(err)
	}

	if len(a[0]) != 64 {
		t.Fatalf("expected dimension 64, got %d", len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

func TestHashEncoder_SharedVocabularyIsCloser(t *testing.T) {
	enc := NewHashEncoder(384)
	vecs, err := enc.Encode(context.Background(), []string{
		"Skills: Python, SQL, Statistics",
		"Job: Data Scientist requires skills: Python, SQL, Statistics, Machine Learning",
		"Job: Graphic Designer requires skills: Photoshop, Illustrator, Typography",
	})
	if err != nil {
		t.Fatal(err)
	}

	near := cosine(vecs[0], vecs[1])
	far := cosine(vecs[0], vecs[2])
	if near <= far {
		t.Errorf("expected data scientist (%f) closer than designer (%f)", near, far)
	}
}

func TestHashEncoder_EmptyText(t *testing.T) {
	enc := NewHashEncoder(16)
	vecs, err := enc.Encode(context.Background(), []string{""})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatal("expected zero vector for empty text")
		}
	}
}

func TestLazy_LoadsOnce(t *testing.T) {
	var loads atomic.Int32
	lazy := NewLazy(16, "hash-16", func() (port.Encoder, error) {
		loads.Add(1)
		return NewHashEncoder(16), nil
	})

	if lazy.Dimension() != 16 || lazy.ModelName() != "hash-16" {
		t.Fatal("metadata should be available before load")
	}
	if loads.Load() != 0 {
		t.Fatal("encoder loaded eagerly")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lazy.Encode(context.Background(), []string{"go"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("expected exactly one load, got %d", loads.Load())
	}
}

func TestLazy_LoadErrorIsSticky(t *testing.T) {
	boom := errors.New("model unavailable")
	lazy := NewLazy(8, "broken", func() (port.Encoder, error) { return nil, boom })

	for range 2 {
		if _, err := lazy.Encode(context.Background(), []string{"x"}); !errors.Is(err, boom) {
			t.Errorf("expected load error, got %v", err)
		}
	}
}

func TestOpenAIEncoder_ReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0,1],"index":1},{"embedding":[1,0],"index":0}]}`))
	}))
	defer srv.Close()

	enc, err := NewOpenAICompatibleEncoder("key", "test-model", srv.URL, 2)
	if err != nil {
		t.Fatal(err)
	}

	vecs, err := enc.Encode(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatal(err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("embeddings not ordered by index: %v", vecs)
	}
}

func TestOpenAIEncoder_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	enc, err := NewOpenAICompatibleEncoder("key", "test-model", srv.URL, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Encode(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error on 503")
	}
}

func TestNew_Providers(t *testing.T) {
	enc, err := New(config.EmbeddingConfig{Provider: "hash", Dimension: 32})
	if err != nil {
		t.Fatal(err)
	}
	if enc.Dimension() != 32 {
		t.Errorf("expected 32, got %d", enc.Dimension())
	}

	enc, err = New(config.EmbeddingConfig{Provider: "ollama", Model: "all-minilm"})
	if err != nil {
		t.Fatal(err)
	}
	if enc.Dimension() != 384 || enc.ModelName() != "all-minilm" {
		t.Errorf("unexpected ollama encoder %d/%s", enc.Dimension(), enc.ModelName())
	}

	if _, err := New(config.EmbeddingConfig{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
