package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"careerpath/internal/domain"
	"careerpath/internal/port"
)

func newAdvisor(t *testing.T, f *fixture, llm *fakeLLM) *AdvisorUseCase {
	t.Helper()
	return NewAdvisorUseCase(f.match, NewExtractUseCase(llm, time.Second, nil), f.graph, nil)
}

func TestParseSkillsQuestion(t *testing.T) {
	tests := []struct {
		in    string
		title string
		ok    bool
	}{
		{"What skills are needed for a Data Scientist?", "Data Scientist", true},
		{"what skills do I need for the backend engineer role", "backend engineer", true},
		{"Which skills does a DevOps Engineer need?", "DevOps Engineer", true},
		{"What technologies are required for an ML Engineer position.", "ML Engineer", true},
		{"Which job suits someone who knows Python and SQL?", "", false},
		{"Python and Docker", "", false},
	}
	for _, tt := range tests {
		title, ok := ParseSkillsQuestion(tt.in)
		if title != tt.title || ok != tt.ok {
			t.Errorf("ParseSkillsQuestion(%q) = %q, %v; want %q, %v", tt.in, title, ok, tt.title, tt.ok)
		}
	}
}

func TestAskQuestion_SkillsRoute(t *testing.T) {
	f := newFixture(t)
	f.indexed(t)
	a := newAdvisor(t, f, &fakeLLM{})

	got := a.AskQuestion(context.Background(), "What skills are needed for a data analyst?")
	if got != "Skills for Data Analyst: Excel, SQL, Tableau" {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestAskQuestion_SearchRoute(t *testing.T) {
	f := newFixture(t)
	f.indexed(t)
	a := newAdvisor(t, f, &fakeLLM{})

	got := a.AskQuestion(context.Background(), "Which job suits someone who knows Kotlin and Swift?")
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 documents, got %q", got)
	}
	if !strings.Contains(lines[0], "Mobile Developer") {
		t.Errorf("expected Mobile Developer first, got %q", lines[0])
	}
}

func TestAskQuestion_Messages(t *testing.T) {
	f := newFixture(t)
	a := newAdvisor(t, f, &fakeLLM{})
	ctx := context.Background()

	if got := a.AskQuestion(ctx, "  "); got != MsgEmptyQuestion {
		t.Errorf("unexpected answer %q", got)
	}
	if got := a.AskQuestion(ctx, "python jobs"); got != domain.MsgIndexMissing {
		t.Errorf("expected missing-index message, got %q", got)
	}
}

func TestAnalyzeResume(t *testing.T) {
	f := newFixture(t)
	f.indexed(t)
	a := newAdvisor(t, f, &fakeLLM{reply: "<think>Looks like ML work.</think>Python, PyTorch, docker"})
	ctx := context.Background()

	upload := Upload{Data: []byte("Built PyTorch models in Python, shipped with Docker."), Filename: "cv.txt"}
	got := a.AnalyzeResume(ctx, upload, "  Dev@Example.com ")

	if want := []string{"Python", "PyTorch", "Docker"}; !reflect.DeepEqual(got.ExtractedSkills, want) {
		t.Errorf("expected %v, got %v", want, got.ExtractedSkills)
	}
	if !got.SavedOK {
		t.Fatalf("expected skills to be saved: %s", got.Message)
	}
	if got.Message != MsgAnalysisComplete {
		t.Errorf("unexpected message %q", got.Message)
	}
	if len(got.Recommendations) != 5 || !strings.Contains(got.Recommendations[0], "ML Engineer") {
		t.Errorf("unexpected recommendations %v", got.Recommendations)
	}

	saved, err := f.graph.UserSkills(ctx, "dev@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Docker", "PyTorch", "Python"}; !reflect.DeepEqual(saved, want) {
		t.Errorf("expected saved skills %v, got %v", want, saved)
	}

	// Resubmitting adds nothing new.
	a.AnalyzeResume(ctx, upload, "dev@example.com")
	again, _ := f.graph.UserSkills(ctx, "dev@example.com")
	if !reflect.DeepEqual(again, saved) {
		t.Errorf("resubmission changed skills: %v", again)
	}
}

func TestAnalyzeResume_RefusalSavesNothing(t *testing.T) {
	f := newFixture(t)
	f.indexed(t)
	ctx := context.Background()

	for _, reply := range []string{"No skills found", "None", "N/A", "Not applicable"} {
		a := newAdvisor(t, f, &fakeLLM{reply: reply})
		got := a.AnalyzeResume(ctx, Upload{Data: []byte("Cashier, 2019-2021"), Filename: "cv.txt"}, "clerk@example.com")
		if got.Message != MsgNoSkills || got.SavedOK || len(got.ExtractedSkills) != 0 {
			t.Errorf("reply %q: got %+v", reply, got)
		}
	}

	saved, err := f.graph.UserSkills(ctx, "clerk@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 0 {
		t.Errorf("expected no saved skills, got %v", saved)
	}
}

func TestAnalyzeResume_Stages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := Upload{Data: []byte("Go developer"), Filename: "cv.txt"}

	tests := []struct {
		name    string
		llm     *fakeLLM
		upload  Upload
		email   string
		message string
		saved   bool
	}{
		{"blank resume", &fakeLLM{reply: "Go, SQL"}, Upload{Data: []byte("   "), Filename: "cv.txt"}, "a@b.c", MsgNoResumeText, false},
		{"broken pdf", &fakeLLM{reply: "Go, SQL"}, Upload{Data: []byte("%PDF-garbage"), Filename: "cv.pdf"}, "a@b.c", MsgNoResumeText, false},
		{"model failure", &fakeLLM{err: errors.New("down")}, text, "a@b.c", MsgNoSkills, false},
		{"prose reply", &fakeLLM{reply: "I cannot help with that request today."}, text, "a@b.c", MsgNoSkills, false},
		{"model unavailable", &fakeLLM{err: port.ErrLLMUnavailable}, text, "a@b.c", MsgNoExtractor, false},
		{"refusal reply", &fakeLLM{reply: "No skills found"}, text, "a@b.c", MsgNoSkills, false},
		{"missing email", &fakeLLM{reply: "Go, SQL"}, text, " ", MsgMissingEmail, false},
		{"missing index", &fakeLLM{reply: "Go, SQL"}, text, "a@b.c", domain.MsgIndexMissing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newAdvisor(t, f, tt.llm).AnalyzeResume(ctx, tt.upload, tt.email)
			if got.Message != tt.message || got.SavedOK != tt.saved {
				t.Errorf("got message %q saved %v, want %q saved %v", got.Message, got.SavedOK, tt.message, tt.saved)
			}
		})
	}
}
