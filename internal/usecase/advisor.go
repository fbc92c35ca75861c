package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"careerpath/internal/adapter/resume"
	"careerpath/internal/domain"
	"careerpath/internal/port"
)

// Messages returned by AnalyzeResume when a stage stops the analysis.
const (
	MsgEmptyQuestion    = "Please ask a question."
	MsgUnsupportedFile  = "Unsupported resume format. Upload a PDF, DOCX or plain-text file."
	MsgNoResumeText     = "Failed to extract text from the resume."
	MsgNoSkills         = "No skills could be extracted from the resume."
	MsgNoExtractor      = "Skill extraction is unavailable right now. Please try again later."
	MsgSaveFailed       = "Failed to save skills to database."
	MsgMissingEmail     = "An email address is required to save skills."
	MsgAnalysisComplete = "Here are job roles that match your resume."
)

// Skills questions name the role after "for" ("what skills are needed for a
// Data Scientist?") or between "does" and "need".
var skillsQuestions = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:what|which)\s+(?:skills?|technologies)\b.*\bfor\s+(?:an?\s+|the\s+)?(.+?)(?:\s+(?:role|position|job))?\s*[?.!]*\s*$`),
	regexp.MustCompile(`(?i)^\s*(?:what|which)\s+(?:skills?|technologies)\s+(?:does|do)\s+(?:an?\s+|the\s+)?(.+?)\s+(?:need|require|have)\s*[?.!]*\s*$`),
}

// Upload is a resume submitted by a user.
type Upload struct {
	Data     []byte
	MIME     string
	Filename string
}

// Analysis is the outcome of a resume analysis. Message is always set.
type Analysis struct {
	ExtractedSkills []string          `json:"extracted_skills"`
	SavedOK         bool              `json:"saved_ok"`
	Recommendations []string          `json:"recommendations"`
	Matches         domain.JobMatches `json:"matches"`
	Message         string            `json:"message"`
}

// AdvisorUseCase serves the consumer-facing operations. It never returns raw
// errors; every failure becomes a message.
type AdvisorUseCase struct {
	match   *MatchUseCase
	extract *ExtractUseCase
	graph   port.GraphStore
	logger  *zap.Logger
}

func NewAdvisorUseCase(match *MatchUseCase, extract *ExtractUseCase, graph port.GraphStore, logger *zap.Logger) *AdvisorUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorUseCase{
		match:   match,
		extract: extract,
		graph:   graph,
		logger:  logger,
	}
}

// AskQuestion answers a free-form career question. Questions about the skills
// for a named role are answered from the graph; everything else is a job search.
func (u *AdvisorUseCase) AskQuestion(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return MsgEmptyQuestion
	}

	if title, ok := ParseSkillsQuestion(text); ok {
		u.logger.Debug("routing question to skills lookup", zap.String("title", title))
		return u.match.SkillsForJobTitle(ctx, title)
	}

	return strings.Join(u.match.SearchJobsBySkillQuery(ctx, text).Documents(), "\n")
}

// ParseSkillsQuestion extracts the job title from a skills question.
func ParseSkillsQuestion(text string) (string, bool) {
	for _, re := range skillsQuestions {
		if m := re.FindStringSubmatch(text); m != nil {
			if title := domain.JobTitle(m[1]); title != "" {
				return title, true
			}
		}
	}
	return "", false
}

// AnalyzeResume reads the resume, extracts skills, records them against the
// user and recommends job roles. It stops at the first failing stage.
func (u *AdvisorUseCase) AnalyzeResume(ctx context.Context, upload Upload, email string) Analysis {
	mime := resume.DetectMIME(upload.MIME, upload.Filename, upload.Data)
	text, err := resume.ExtractText(mime, upload.Data)
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedType) {
			return Analysis{Message: MsgUnsupportedFile}
		}
		u.logger.Warn("resume text extraction failed", zap.String("mime", mime), zap.Error(err))
		return Analysis{Message: MsgNoResumeText}
	}
	if strings.TrimSpace(text) == "" {
		return Analysis{Message: MsgNoResumeText}
	}

	extracted, err := u.extract.Extract(ctx, text)
	if err != nil {
		u.logger.Error("skill extraction unavailable", zap.Error(err))
		return Analysis{Message: MsgNoExtractor}
	}
	skills := domain.NormalizeSkills(extracted)
	if len(skills) == 0 {
		return Analysis{Message: MsgNoSkills}
	}
	analysis := Analysis{ExtractedSkills: skills}

	email = domain.Email(email)
	if email == "" {
		analysis.Message = MsgMissingEmail
		return analysis
	}
	if err := u.graph.UpsertUserSkills(ctx, email, skills); err != nil {
		u.logger.Error("saving user skills failed", zap.String("email", email), zap.Error(err))
		analysis.Message = MsgSaveFailed
		return analysis
	}
	analysis.SavedOK = true

	analysis.Matches = u.match.RecommendJobsFromSkills(ctx, skills)
	analysis.Recommendations = analysis.Matches.Documents()
	if analysis.Matches.Status == domain.MatchOK {
		analysis.Message = MsgAnalysisComplete
	} else {
		analysis.Message = analysis.Recommendations[0]
	}
	return analysis
}
