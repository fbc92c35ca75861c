package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"careerpath/internal/adapter/fs"
	"careerpath/internal/adapter/store"
	"careerpath/internal/domain"
	"careerpath/internal/port"
)

// ErrInvalidRow marks an import row that cannot become a job role.
var ErrInvalidRow = errors.New("invalid job-skill row")

const maxLineBytes = 1 << 20

// IngestUseCase loads job-skill data into the graph and builds the job index from it.
type IngestUseCase struct {
	graph     port.GraphStore
	vectors   *store.VectorStore
	encoder   port.Encoder
	cache     port.MatchCache
	walker    *fs.Walker
	logger    *zap.Logger
	batchSize int
	embedSize int
}

// NewIngestUseCase creates a new ingest use case. batchSize bounds rows per
// graph transaction; embedBatch bounds texts per encoder call.
func NewIngestUseCase(
	graph port.GraphStore,
	vectors *store.VectorStore,
	encoder port.Encoder,
	matchCache port.MatchCache,
	walker *fs.Walker,
	batchSize, embedBatch int,
	logger *zap.Logger,
) *IngestUseCase {
	if walker == nil {
		walker = fs.NewWalker(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if embedBatch <= 0 {
		embedBatch = 100
	}
	return &IngestUseCase{
		graph:     graph,
		vectors:   vectors,
		encoder:   encoder,
		cache:     matchCache,
		walker:    walker,
		logger:    logger,
		batchSize: batchSize,
		embedSize: embedBatch,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	Files    int
	Rows     int
	Imported int
	Skipped  int
	Batches  int
	Errors   []string
}

// ProgressFunc reports done out of total units of work.
type ProgressFunc func(done, total int)

// ImportJobSkills merges every JSONL row of the matched files into the graph.
// A failing batch aborts the import; batches already committed stay committed
// and are reflected in the returned result.
func (u *IngestUseCase) ImportJobSkills(ctx context.Context, patterns []string, progress ProgressFunc) (*ImportResult, error) {
	files, err := u.walker.Expand(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve import files: %w", err)
	}

	result := &ImportResult{Files: len(files)}
	batch := make([]domain.JobSkills, 0, u.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.graph.ImportBatch(ctx, batch); err != nil {
			return fmt.Errorf("import batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, file := range files {
		err := readJobSkills(file.Path, func(line int, row domain.JobSkills, rowErr error) error {
			result.Rows++
			if rowErr != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("%s:%d: %v", file.Path, line, rowErr))
				return nil
			}
			batch = append(batch, row)
			if len(batch) >= u.batchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return result, err
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	if err := flush(); err != nil {
		return result, err
	}

	u.logger.Info("import complete",
		zap.Int("files", result.Files),
		zap.Int("rows", result.Rows),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// readJobSkills streams one JSONL file, calling fn for every non-blank line.
func readJobSkills(path string, fn func(line int, row domain.JobSkills, err error) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		row, rowErr := parseJobSkills(raw)
		if err := fn(line, row, rowErr); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func parseJobSkills(raw []byte) (domain.JobSkills, error) {
	var row domain.JobSkills
	if err := json.Unmarshal(raw, &row); err != nil {
		return row, fmt.Errorf("%w: malformed json: %v", ErrInvalidRow, err)
	}
	row.Title = domain.JobTitle(row.Title)
	row.Skills = domain.NormalizeSkills(row.Skills)
	if row.Title == "" {
		return row, fmt.Errorf("%w: empty job_title", ErrInvalidRow)
	}
	if len(row.Skills) == 0 {
		return row, fmt.Errorf("%w: %q has no skills", ErrInvalidRow, row.Title)
	}
	return row, nil
}

// BuildIndex re-embeds every job role in the graph and atomically replaces the
// job_roles collection. Returns the number of indexed documents.
func (u *IngestUseCase) BuildIndex(ctx context.Context, progress ProgressFunc) (int, error) {
	jobs, err := u.graph.JobDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read job roles: %w", err)
	}

	docs := make([]domain.Document, len(jobs))
	for i, job := range jobs {
		docs[i] = domain.Document{
			ID:   job.Title,
			Text: domain.JobDocumentText(job.Title, job.Skills),
		}
	}

	for start := 0; start < len(docs); start += u.embedSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		end := min(start+u.embedSize, len(docs))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = docs[start+i].Text
		}
		vecs, err := u.encoder.Encode(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vecs) != len(texts) {
			return 0, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, v := range vecs {
			docs[start+i].Vector = v
		}
		if progress != nil {
			progress(end, len(docs))
		}
	}

	if _, err := u.vectors.Rebuild(ctx, domain.JobRolesCollection, u.encoder.Dimension(), u.encoder.ModelName(), docs); err != nil {
		return 0, fmt.Errorf("failed to rebuild job index: %w", err)
	}
	if u.cache != nil {
		u.cache.Invalidate(ctx)
	}

	u.logger.Info("job index rebuilt",
		zap.Int("documents", len(docs)),
		zap.String("model", u.encoder.ModelName()),
		zap.Int("dimension", u.encoder.Dimension()),
	)
	return len(docs), nil
}

// Sample graph written by SeedSample.
const (
	SampleUserEmail = "learner@example.com"
	SampleJobTitle  = "Data Scientist"
)

var sampleCourses = map[string]domain.Course{
	"Python":           {Title: "Python Basics", URL: "https://example.com/python"},
	"Machine Learning": {Title: "Intro to ML", URL: "https://example.com/ml"},
}

// SeedSample writes a small demonstration graph. Safe to run repeatedly.
func (u *IngestUseCase) SeedSample(ctx context.Context) error {
	skills := []string{"Python", "Machine Learning"}

	if err := u.graph.ImportBatch(ctx, []domain.JobSkills{{Title: SampleJobTitle, Skills: skills}}); err != nil {
		return fmt.Errorf("seed job role: %w", err)
	}
	for _, skill := range skills {
		if err := u.graph.UpsertCourse(ctx, skill, sampleCourses[skill]); err != nil {
			return fmt.Errorf("seed course for %s: %w", skill, err)
		}
	}
	if err := u.graph.SetUserTarget(ctx, SampleUserEmail, SampleJobTitle); err != nil {
		return fmt.Errorf("seed user target: %w", err)
	}
	if err := u.graph.UpsertUserSkills(ctx, SampleUserEmail, skills[:1]); err != nil {
		return fmt.Errorf("seed user skills: %w", err)
	}
	return nil
}

// EnsureSchema prepares the graph backend and the index store.
func (u *IngestUseCase) EnsureSchema(ctx context.Context) error {
	if err := u.graph.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("graph schema: %w", err)
	}
	if u.vectors != nil {
		if err := u.vectors.Migrate(); err != nil {
			return fmt.Errorf("index schema: %w", err)
		}
	}
	return nil
}
