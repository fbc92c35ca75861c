package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"careerpath/internal/logger"
	"careerpath/internal/port"
)

const (
	maxFirstLineLen = 500
	minListTokens   = 4
	maxSkillLen     = 80
	maxResumeChars  = 20000
)

const extractPrompt = "You are a skill extraction assistant. Extract ONLY technical skills from the resume text below. " +
	"Return ONLY a comma-separated list of skills with NO explanations, NO thinking process, NO additional text.\n" +
	"Example response format: Python, JavaScript, React, SQL, Docker\n\n" +
	"Resume text:\n%s\n\n" +
	"Skills (comma-separated only):"

var skillsLabel = regexp.MustCompile(`(?i)^skills?\s*:\s*`)

// ExtractUseCase turns resume text into a skill list using a language model.
type ExtractUseCase struct {
	llm     port.LLM
	timeout time.Duration
	logger  *zap.Logger
}

func NewExtractUseCase(llm port.LLM, timeout time.Duration, log *zap.Logger) *ExtractUseCase {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	if llm != nil {
		log = logger.WithModel(log, "", llm.ModelName())
	}
	return &ExtractUseCase{llm: llm, timeout: timeout, logger: log}
}

// ExtractSkills never fails: a model error, a timeout or unusable output all
// yield an empty list.
func (u *ExtractUseCase) ExtractSkills(ctx context.Context, resumeText string) []string {
	skills, _ := u.Extract(ctx, resumeText)
	return skills
}

// Extract is ExtractSkills that still reports port.ErrLLMUnavailable, so
// callers can tell a missing model from a resume without skills.
func (u *ExtractUseCase) Extract(ctx context.Context, resumeText string) ([]string, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return nil, nil
	}
	if u.llm == nil {
		return nil, port.ErrLLMUnavailable
	}
	if utf8.RuneCountInString(resumeText) > maxResumeChars {
		resumeText = string([]rune(resumeText)[:maxResumeChars])
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	completion, err := u.llm.Complete(ctx, strings.Replace(extractPrompt, "%s", resumeText, 1))
	if err != nil {
		u.logger.Warn("skill extraction failed", zap.Error(err))
		if errors.Is(err, port.ErrLLMUnavailable) {
			return nil, err
		}
		return nil, nil
	}

	skills := ParseSkillList(completion.Text)
	if len(skills) == 0 {
		u.logger.Debug("no skills in model output",
			zap.Bool("had_reasoning", completion.HadReasoning),
			zap.String("output", logger.TruncateForLog(completion.Text, 200)),
		)
	}
	return skills, nil
}

// ParseSkillList extracts a comma-separated skill list from raw model output.
// It never fails; unusable output yields nil.
func ParseSkillList(raw string) []string {
	text := strings.TrimSpace(raw)
	if i := strings.LastIndex(text, "</think>"); i >= 0 {
		text = strings.TrimSpace(text[i+len("</think>"):])
	}
	text = skillsLabel.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	line := strings.TrimSpace(lines[0])

	if len(line) > maxFirstLineLen {
		line = ""
		for _, l := range lines[1:] {
			if strings.Count(l, ",")+1 >= minListTokens {
				line = strings.TrimSpace(skillsLabel.ReplaceAllString(strings.TrimSpace(l), ""))
				break
			}
		}
	}
	if line == "" {
		return nil
	}

	// A reply with no list in it is a refusal or prose ("None", "No skills found").
	if !strings.Contains(line, ",") {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(line, ",") {
		tok = strings.TrimRight(strings.TrimSpace(tok), ".")
		tok = strings.TrimSpace(tok)
		if tok == "" || utf8.RuneCountInString(tok) > maxSkillLen {
			continue
		}
		key := strings.ToLower(tok)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}
	return out
}
