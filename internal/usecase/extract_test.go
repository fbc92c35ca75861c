package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"careerpath/internal/port"
)

func TestParseSkillList(t *testing.T) {
	longProse := strings.Repeat("The candidate has broad experience across many areas. ", 12)

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain list", "Python, SQL, Docker", []string{"Python", "SQL", "Docker"}},
		{"reasoning stripped", "<think>The resume lists Python and SQL, plus Docker.</think>\nPython, SQL, Docker", []string{"Python", "SQL", "Docker"}},
		{"label stripped", "Skills: Go, Kubernetes", []string{"Go", "Kubernetes"}},
		{"only first line", "Go, Rust\nThese are the skills I found.", []string{"Go", "Rust"}},
		{"trailing periods", "Go., Rust.", []string{"Go", "Rust"}},
		{"empty tokens dropped", "Go,, ,Rust,", []string{"Go", "Rust"}},
		{"case-insensitive dedupe", "Python, python, PYTHON, SQL", []string{"Python", "SQL"}},
		{"single token without comma", "Python", nil},
		{"prose without commas", "I could not find any technical skills in this resume.", nil},
		{"refusal none", "None", nil},
		{"refusal n/a", "N/A", nil},
		{"refusal not applicable", "Not applicable", nil},
		{"refusal no skills found", "No skills found", nil},
		{"labelled refusal", "Skills: none", nil},
		{"long first line uses later list", longProse + "\nPython, SQL, Docker, Git", []string{"Python", "SQL", "Docker", "Git"}},
		{"long first line without list", longProse + "\nPython, SQL", nil},
		{"empty", "   ", nil},
		{"skill named like the label", "Skillset Management, Go", []string{"Skillset Management", "Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSkillList(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSkillList() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseSkillList_DropsOverlongTokens(t *testing.T) {
	got := ParseSkillList("Go, " + strings.Repeat("x", 81))
	if !reflect.DeepEqual(got, []string{"Go"}) {
		t.Errorf("expected overlong token dropped, got %v", got)
	}
}

func TestExtractSkills(t *testing.T) {
	llm := &fakeLLM{reply: "Python, SQL, Docker"}
	uc := NewExtractUseCase(llm, time.Second, nil)

	got := uc.ExtractSkills(context.Background(), "Worked with Python and SQL in Docker.")
	if !reflect.DeepEqual(got, []string{"Python", "SQL", "Docker"}) {
		t.Errorf("unexpected skills %v", got)
	}
}

func TestExtractSkills_EmptyInputSkipsModel(t *testing.T) {
	llm := &fakeLLM{reply: "Python"}
	uc := NewExtractUseCase(llm, time.Second, nil)

	if got := uc.ExtractSkills(context.Background(), "  \n "); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if llm.calls.Load() != 0 {
		t.Error("model should not be called for empty text")
	}
}

func TestExtractSkills_FailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"provider error", &fakeLLM{err: errors.New("rate limited")}},
		{"timeout", &fakeLLM{reply: "Python", wait: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewExtractUseCase(tt.llm, 20*time.Millisecond, nil)
			if got := uc.ExtractSkills(context.Background(), "resume"); len(got) != 0 {
				t.Errorf("expected empty skills, got %v", got)
			}
		})
	}
}

func TestExtract_ReportsUnavailableModel(t *testing.T) {
	tests := []struct {
		name string
		uc   *ExtractUseCase
	}{
		{"no model", NewExtractUseCase(nil, time.Second, nil)},
		{"model cannot be built", NewExtractUseCase(&fakeLLM{err: fmt.Errorf("%w: api key is required", port.ErrLLMUnavailable)}, time.Second, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skills, err := tt.uc.Extract(context.Background(), "Go developer")
			if !errors.Is(err, port.ErrLLMUnavailable) || skills != nil {
				t.Errorf("expected ErrLLMUnavailable, got %v %v", skills, err)
			}
		})
	}

	skills, err := NewExtractUseCase(&fakeLLM{err: errors.New("rate limited")}, time.Second, nil).Extract(context.Background(), "Go developer")
	if err != nil || skills != nil {
		t.Errorf("provider errors must degrade to an empty list, got %v %v", skills, err)
	}
}
