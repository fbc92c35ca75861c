package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"careerpath/config"
	"careerpath/internal/domain"
	"careerpath/internal/usecase"
)

type fakeAdvisor struct {
	question string
	email    string
	upload   usecase.Upload
	analysis usecase.Analysis
}

func (f *fakeAdvisor) AskQuestion(ctx context.Context, text string) string {
	f.question = text
	return "Skills for Data Scientist: Python"
}

func (f *fakeAdvisor) AnalyzeResume(ctx context.Context, upload usecase.Upload, email string) usecase.Analysis {
	f.upload, f.email = upload, email
	return f.analysis
}

type fakeMatcher struct {
	matches domain.JobMatches
}

func (f *fakeMatcher) RecommendJobsFromSkills(ctx context.Context, skills []string) domain.JobMatches {
	return f.matches
}

func (f *fakeMatcher) SkillsForJobTitle(ctx context.Context, title string) string {
	return "No skills found for " + title + "."
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *Server, req *http.Request) envelope {
	t.Helper()
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Status != resp.StatusCode {
		t.Errorf("envelope status %d differs from http status %d", env.Status, resp.StatusCode)
	}
	return env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	s := New(config.ServerConfig{}, &fakeAdvisor{}, &fakeMatcher{}, nil)
	if env := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil)); env.Status != http.StatusOK || env.Message != MessageOK {
		t.Errorf("unexpected health response %+v", env)
	}
}

func TestAsk(t *testing.T) {
	adv := &fakeAdvisor{}
	s := New(config.ServerConfig{}, adv, &fakeMatcher{}, nil)

	env := do(t, s, jsonRequest(http.MethodPost, "/api/ask", `{"question": "What skills are needed for a Data Scientist?"}`))
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", env.Status, env.Message)
	}
	if adv.question != "What skills are needed for a Data Scientist?" {
		t.Errorf("question not forwarded: %q", adv.question)
	}
	var data struct{ Answer string }
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Answer == "" {
		t.Errorf("unexpected data %s", env.Data)
	}

	if env := do(t, s, jsonRequest(http.MethodPost, "/api/ask", `{"question": " "}`)); env.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for blank question, got %d", env.Status)
	}
	if env := do(t, s, jsonRequest(http.MethodPost, "/api/ask", `{`)); env.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", env.Status)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		matches domain.JobMatches
		status  int
		message string
	}{
		{"ok", domain.JobMatches{Status: domain.MatchOK, Matches: []domain.Match{{JobTitle: "Data Scientist"}}}, http.StatusOK, MessageOK},
		{"no matches", domain.JobMatches{Status: domain.MatchNone}, http.StatusNotFound, domain.MsgNoMatches},
		{"index missing", domain.JobMatches{Status: domain.MatchIndexMissing}, http.StatusServiceUnavailable, domain.MsgIndexMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.ServerConfig{}, &fakeAdvisor{}, &fakeMatcher{matches: tt.matches}, nil)
			env := do(t, s, jsonRequest(http.MethodPost, "/api/recommend", `{"skills": ["python"]}`))
			if env.Status != tt.status || env.Message != tt.message {
				t.Errorf("got %d %q, want %d %q", env.Status, env.Message, tt.status, tt.message)
			}
		})
	}

	s := New(config.ServerConfig{}, &fakeAdvisor{}, &fakeMatcher{}, nil)
	if env := do(t, s, jsonRequest(http.MethodPost, "/api/recommend", `{"skills": [" "]}`)); env.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for empty skills, got %d", env.Status)
	}
}

func TestJobSkills(t *testing.T) {
	s := New(config.ServerConfig{}, &fakeAdvisor{}, &fakeMatcher{}, nil)

	env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/skills?title=Astronaut", nil))
	if env.Status != http.StatusOK || !strings.Contains(string(env.Data), "No skills found for Astronaut.") {
		t.Errorf("unexpected response %+v", env)
	}

	if env := do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/skills", nil)); env.Status != http.StatusBadRequest {
		t.Errorf("expected 400 without title, got %d", env.Status)
	}
}

func resumeRequest(t *testing.T, email, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if email != "" {
		if err := w.WriteField("email", email); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("resume", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/resume", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestResume(t *testing.T) {
	adv := &fakeAdvisor{analysis: usecase.Analysis{
		ExtractedSkills: []string{"Go"},
		SavedOK:         true,
		Matches:         domain.JobMatches{Status: domain.MatchOK},
		Message:         usecase.MsgAnalysisComplete,
	}}
	s := New(config.ServerConfig{}, adv, &fakeMatcher{}, nil)

	env := do(t, s, resumeRequest(t, "Dev@Example.com", "cv.txt", []byte("Go developer")))
	if env.Status != http.StatusOK || env.Message != usecase.MsgAnalysisComplete {
		t.Fatalf("unexpected response %d %q", env.Status, env.Message)
	}
	if adv.email != "dev@example.com" || adv.upload.Filename != "cv.txt" || string(adv.upload.Data) != "Go developer" {
		t.Errorf("upload not forwarded: %q %+v", adv.email, adv.upload)
	}
}

func TestResume_Rejections(t *testing.T) {
	s := New(config.ServerConfig{MaxUploadBytes: 1 << 20}, &fakeAdvisor{analysis: usecase.Analysis{Message: usecase.MsgNoSkills}}, &fakeMatcher{}, nil)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing email", resumeRequest(t, "", "cv.txt", []byte("x")), http.StatusBadRequest},
		{"missing file", resumeRequest(t, "a@b.c", "", nil), http.StatusBadRequest},
		{"no skills", resumeRequest(t, "a@b.c", "cv.txt", []byte("x")), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if env := do(t, s, tt.req); env.Status != tt.status {
				t.Errorf("expected %d, got %d (%s)", tt.status, env.Status, env.Message)
			}
		})
	}
}

func TestResume_ExtractionUnavailable(t *testing.T) {
	adv := &fakeAdvisor{analysis: usecase.Analysis{Message: usecase.MsgNoExtractor}}
	s := New(config.ServerConfig{}, adv, &fakeMatcher{}, nil)

	env := do(t, s, resumeRequest(t, "a@b.c", "cv.txt", []byte("Go developer")))
	if env.Status != http.StatusServiceUnavailable || env.Message != usecase.MsgNoExtractor {
		t.Errorf("expected 503 with extraction message, got %d %q", env.Status, env.Message)
	}
}
