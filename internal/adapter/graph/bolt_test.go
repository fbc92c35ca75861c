package graph

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"careerpath/config"
	"careerpath/internal/domain"
	"careerpath/internal/port"
)

func openTestGraph(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("failed to open graph: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertJobSkill_Idempotent(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	for range 2 {
		if err := s.UpsertJobSkill(ctx, "Data Scientist", "Python"); err != nil {
			t.Fatal(err)
		}
	}

	js, err := s.SkillsForJob(ctx, "Data Scientist")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(js.Skills, []string{"Python"}) {
		t.Errorf("expected exactly one REQUIRES edge, got %v", js.Skills)
	}
}

func TestConcurrentUpserts_NoDuplicates(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			skills := []string{"Python", "SQL"}
			if i%2 == 1 {
				skills = []string{"SQL", "Python"}
			}
			if err := s.UpsertUserSkills(ctx, "Dev@Example.com", skills); err != nil {
				errs <- err
			}
			if err := s.UpsertJobSkill(ctx, "Data Scientist", "Python"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	user, err := s.UserSkills(ctx, "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(user, []string{"Python", "SQL"}) {
		t.Errorf("expected one HAS_SKILL edge per skill, got %v", user)
	}

	js, err := s.SkillsForJob(ctx, "data scientist")
	if err != nil {
		t.Fatal(err)
	}
	if js.Title != "Data Scientist" || !reflect.DeepEqual(js.Skills, []string{"Python"}) {
		t.Errorf("expected a single job with one skill, got %+v", js)
	}
}

func TestUpsertJobSkill_CaseInsensitiveSkill(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	_ = s.UpsertJobSkill(ctx, "Data Analyst", "SQL")
	_ = s.UpsertJobSkill(ctx, "data analyst", "sql")

	js, err := s.SkillsForJob(ctx, "Data Analyst")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(js.Skills, []string{"SQL"}) {
		t.Errorf("expected first spelling to win, got %v", js.Skills)
	}
}

func TestSkillsForJob_NormalizedLookup(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	if err := s.UpsertJobSkill(ctx, "Data Scientist", "Python"); err != nil {
		t.Fatal(err)
	}

	js, err := s.SkillsForJob(ctx, "  data   scientist ")
	if err != nil {
		t.Fatalf("expected normalized lookup to match, got %v", err)
	}
	if js.Title != "Data Scientist" {
		t.Errorf("expected stored title, got %q", js.Title)
	}
}

func TestSkillsForJob_NotFound(t *testing.T) {
	s := openTestGraph(t)

	_, err := s.SkillsForJob(context.Background(), "Astronaut")
	if !errors.Is(err, port.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestImportBatch_Union(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	rows := []domain.JobSkills{
		{Title: "Backend Engineer", Skills: []string{"Go", "SQL"}},
		{Title: "Backend Engineer", Skills: []string{"Docker", "Go"}},
	}
	if err := s.ImportBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}

	js, err := s.SkillsForJob(ctx, "Backend Engineer")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Docker", "Go", "SQL"}
	if !reflect.DeepEqual(js.Skills, want) {
		t.Errorf("expected union %v, got %v", want, js.Skills)
	}
}

func TestImportBatch_RollsBackOnFailure(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	rows := []domain.JobSkills{
		{Title: "Designer", Skills: []string{"Figma"}},
		{Title: "   ", Skills: []string{"Nothing"}},
	}
	if err := s.ImportBatch(ctx, rows); err == nil {
		t.Fatal("expected batch with an empty title to fail")
	}

	if _, err := s.SkillsForJob(ctx, "Designer"); !errors.Is(err, port.ErrJobNotFound) {
		t.Errorf("expected failed batch to be rolled back, got %v", err)
	}
}

func TestJobDocuments(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	_ = s.UpsertJobSkill(ctx, "Data Scientist", "Python")
	_ = s.UpsertJobSkill(ctx, "Data Scientist", "Machine Learning")
	// A job reached only through AIM_FOR has no REQUIRES edges.
	_ = s.SetUserTarget(ctx, "a@b.com", "Astronaut")

	docs, err := s.JobDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d: %v", len(docs), docs)
	}
	if docs[0].Title != "Data Scientist" || len(docs[0].Skills) != 2 {
		t.Errorf("unexpected document %+v", docs[0])
	}
}

func TestUserSkills_Additive(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	if err := s.UpsertUserSkills(ctx, "User@Example.com ", []string{"python", "SQL"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUserSkills(ctx, "user@example.com", []string{"Docker", "Python"}); err != nil {
		t.Fatal(err)
	}

	skills, err := s.UserSkills(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Docker", "Python", "SQL"}
	if !reflect.DeepEqual(skills, want) {
		t.Errorf("expected %v, got %v", want, skills)
	}
}

func TestCoursesAndTargets(t *testing.T) {
	s := openTestGraph(t)
	ctx := context.Background()

	course := domain.Course{Title: "Intro to Python", URL: "https://example.com/python"}
	if err := s.UpsertCourse(ctx, "Python", course); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertCourse(ctx, "python", course); err != nil {
		t.Fatal(err)
	}

	courses, err := s.CoursesForSkill(ctx, "PYTHON")
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 1 || courses[0] != course {
		t.Errorf("expected one course, got %v", courses)
	}

	if err := s.SetUserTarget(ctx, "a@b.com", "Data Scientist"); err != nil {
		t.Fatal(err)
	}
	targets, err := s.UserTargets(ctx, "A@B.com")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(targets, []string{"Data Scientist"}) {
		t.Errorf("unexpected targets %v", targets)
	}
}

func TestOpen_LockedFileFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	first, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	if _, err := NewBoltStore(path); !errors.Is(err, port.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable for locked file, got %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.GraphConfig{Backend: "dynamo"}, t.TempDir()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
