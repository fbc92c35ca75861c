package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"careerpath/config"
	"careerpath/internal/adapter/cache"
	"careerpath/internal/adapter/embedding"
	"careerpath/internal/adapter/graph"
	"careerpath/internal/adapter/store"
	"careerpath/internal/domain"
	"careerpath/internal/port"
)

type fakeLLM struct {
	reply string
	err   error
	calls atomic.Int32
	wait  time.Duration
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (port.Completion, error) {
	f.calls.Add(1)
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return port.Completion{}, ctx.Err()
		}
	}
	if f.err != nil {
		return port.Completion{}, f.err
	}
	return port.Completion{Text: f.reply}, nil
}

func (f *fakeLLM) ModelName() string { return "fake" }

type fixture struct {
	graph   *graph.BoltStore
	vectors *store.VectorStore
	encoder *embedding.HashEncoder
	cache   *cache.QueryCache
	match   *MatchUseCase
	ingest  *IngestUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	g, err := graph.NewBoltStore(filepath.Join(dir, "graph.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })

	vs, err := store.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vs.Close() })

	enc := embedding.NewHashEncoder(256)
	qc := cache.NewQueryCache(32, time.Minute)

	return &fixture{
		graph:   g,
		vectors: vs,
		encoder: enc,
		cache:   qc,
		match:   NewMatchUseCase(vs, g, enc, qc, config.MatchConfig{RecommendTopK: 5, SearchTopK: 3}, nil),
		ingest:  NewIngestUseCase(g, vs, enc, qc, nil, 2, 2, nil),
	}
}

var sampleJobs = []domain.JobSkills{
	{Title: "Data Scientist", Skills: []string{"Python", "Machine Learning", "Statistics"}},
	{Title: "Data Analyst", Skills: []string{"SQL", "Excel", "Tableau"}},
	{Title: "Backend Engineer", Skills: []string{"Go", "PostgreSQL", "Docker"}},
	{Title: "Frontend Developer", Skills: []string{"JavaScript", "React", "CSS"}},
	{Title: "DevOps Engineer", Skills: []string{"Kubernetes", "Docker", "Terraform"}},
	{Title: "ML Engineer", Skills: []string{"Python", "PyTorch", "Docker"}},
	{Title: "Mobile Developer", Skills: []string{"Kotlin", "Swift"}},
}

// indexed loads sampleJobs into the graph and builds the job index.
func (f *fixture) indexed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.graph.ImportBatch(ctx, sampleJobs); err != nil {
		t.Fatal(err)
	}
	n, err := f.ingest.BuildIndex(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(sampleJobs) {
		t.Fatalf("expected %d indexed jobs, got %d", len(sampleJobs), n)
	}
}

func writeJSONL(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
