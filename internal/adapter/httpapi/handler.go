package httpapi

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"careerpath/internal/domain"
	"careerpath/internal/usecase"
)

type handler struct {
	advisor   Advisor
	matcher   Matcher
	maxUpload int64
}

type askRequest struct {
	Question string `json:"question"`
}

type recommendRequest struct {
	Skills []string `json:"skills"`
}

func (h *handler) health(c fiber.Ctx) error {
	return success(c, fiber.Map{"service": "careerpath"})
}

func (h *handler) ask(c fiber.Ctx) error {
	var req askRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("invalid request payload", err)
	}
	if strings.TrimSpace(req.Question) == "" {
		return badRequest("question is required", nil)
	}
	answer := h.advisor.AskQuestion(c.Context(), req.Question)
	return success(c, fiber.Map{"answer": answer})
}

func (h *handler) recommend(c fiber.Ctx) error {
	var req recommendRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest("invalid request payload", err)
	}
	if len(domain.NormalizeSkills(req.Skills)) == 0 {
		return badRequest("skills are required", nil)
	}
	return matchesReply(c, h.matcher.RecommendJobsFromSkills(c.Context(), req.Skills))
}

func (h *handler) jobSkills(c fiber.Ctx) error {
	title := domain.JobTitle(c.Query("title"))
	if title == "" {
		return badRequest("title is required", nil)
	}
	return success(c, fiber.Map{"title": title, "answer": h.matcher.SkillsForJobTitle(c.Context(), title)})
}

func (h *handler) resume(c fiber.Ctx) error {
	email := domain.Email(c.FormValue("email"))
	if email == "" {
		return badRequest("email is required", nil)
	}

	fh, err := c.FormFile("resume")
	if err != nil {
		return badRequest("resume file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest("unreadable resume file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return badRequest("unreadable resume file", err)
	}
	if int64(len(data)) > h.maxUpload {
		return &AppError{StatusCode: fiber.StatusRequestEntityTooLarge, Message: "resume file too large"}
	}

	analysis := h.advisor.AnalyzeResume(c.Context(), usecase.Upload{
		Data:     data,
		MIME:     fh.Header.Get(fiber.HeaderContentType),
		Filename: fh.Filename,
	}, email)

	status := fiber.StatusOK
	switch {
	case analysis.Message == usecase.MsgNoExtractor:
		status = fiber.StatusServiceUnavailable
	case analysis.SavedOK && analysis.Matches.Status != domain.MatchOK:
		status = matchStatusCode(analysis.Matches.Status)
	case !analysis.SavedOK && len(analysis.ExtractedSkills) > 0:
		status = fiber.StatusInternalServerError
	case len(analysis.ExtractedSkills) == 0:
		status = fiber.StatusUnprocessableEntity
	}
	return reply(c, status, analysis.Message, analysis)
}

func matchesReply(c fiber.Ctx, m domain.JobMatches) error {
	if m.Status == domain.MatchOK {
		return success(c, m)
	}
	return reply(c, matchStatusCode(m.Status), m.Documents()[0], m)
}

func matchStatusCode(s domain.MatchStatus) int {
	switch s {
	case domain.MatchOK:
		return fiber.StatusOK
	case domain.MatchNone:
		return fiber.StatusNotFound
	case domain.MatchIndexMissing:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
