package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"careerpath/config"
	"careerpath/internal/adapter/cache"
	"careerpath/internal/adapter/store"
	"careerpath/internal/domain"
	"careerpath/internal/port"
)

// MatchUseCase maps skills and free-text queries to ranked job roles. It keeps
// no state of its own beyond the injected stores and cache.
type MatchUseCase struct {
	vectors *store.VectorStore
	graph   port.GraphStore
	encoder port.Encoder
	cache   port.MatchCache
	logger  *zap.Logger

	recommendK int
	searchK    int
}

// NewMatchUseCase creates a new match use case. A nil cache disables caching.
func NewMatchUseCase(
	vectors *store.VectorStore,
	graph port.GraphStore,
	encoder port.Encoder,
	matchCache port.MatchCache,
	cfg config.MatchConfig,
	logger *zap.Logger,
) *MatchUseCase {
	if matchCache == nil {
		matchCache = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecommendTopK <= 0 {
		cfg.RecommendTopK = 5
	}
	if cfg.SearchTopK <= 0 {
		cfg.SearchTopK = 3
	}
	return &MatchUseCase{
		vectors:    vectors,
		graph:      graph,
		encoder:    encoder,
		cache:      matchCache,
		logger:     logger,
		recommendK: cfg.RecommendTopK,
		searchK:    cfg.SearchTopK,
	}
}

// RecommendJobsFromSkills ranks job roles against a skill list.
func (u *MatchUseCase) RecommendJobsFromSkills(ctx context.Context, skills []string) domain.JobMatches {
	skills = domain.NormalizeSkills(skills)
	if len(skills) == 0 {
		return domain.JobMatches{Status: domain.MatchNone}
	}
	return u.search(ctx, domain.SkillQueryText(skills), u.recommendK)
}

// SearchJobsBySkillQuery ranks job roles against free text.
func (u *MatchUseCase) SearchJobsBySkillQuery(ctx context.Context, text string) domain.JobMatches {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.JobMatches{Status: domain.MatchNone}
	}
	return u.search(ctx, text, u.searchK)
}

// SkillsForJobTitle describes the skills a job role requires.
func (u *MatchUseCase) SkillsForJobTitle(ctx context.Context, title string) string {
	title = domain.JobTitle(title)

	js, err := u.graph.SkillsForJob(ctx, title)
	if err != nil {
		if !errors.Is(err, port.ErrJobNotFound) {
			u.logger.Warn("skills lookup failed", zap.String("title", title), zap.Error(err))
		}
		return fmt.Sprintf("No skills found for %s.", title)
	}
	if len(js.Skills) == 0 {
		return fmt.Sprintf("No skills found for %s.", title)
	}
	return fmt.Sprintf("Skills for %s: %s", js.Title, strings.Join(js.Skills, ", "))
}

// CoursesForSkills returns the courses linked to each skill that has any.
func (u *MatchUseCase) CoursesForSkills(ctx context.Context, skills []string) map[string][]domain.Course {
	out := make(map[string][]domain.Course)
	for _, skill := range domain.NormalizeSkills(skills) {
		courses, err := u.graph.CoursesForSkill(ctx, skill)
		if err != nil {
			u.logger.Warn("course lookup failed", zap.String("skill", skill), zap.Error(err))
			continue
		}
		if len(courses) > 0 {
			out[skill] = courses
		}
	}
	return out
}

func (u *MatchUseCase) search(ctx context.Context, query string, k int) domain.JobMatches {
	if cached, ok := u.cache.Get(ctx, query, k); ok {
		u.logger.Debug("match cache hit", zap.String("query", query), zap.Int("k", k))
		return cached
	}

	coll, err := u.vectors.Get(domain.JobRolesCollection)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			return domain.JobMatches{Status: domain.MatchIndexMissing}
		}
		u.logger.Error("open job index failed", zap.Error(err))
		return domain.JobMatches{Status: domain.MatchFailed}
	}

	vecs, err := u.encoder.Encode(ctx, []string{query})
	if err != nil || len(vecs) != 1 {
		u.logger.Error("encode query failed", zap.String("model", u.encoder.ModelName()), zap.Error(err))
		return domain.JobMatches{Status: domain.MatchFailed}
	}

	hits, err := coll.Query(ctx, vecs[0], k)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			return domain.JobMatches{Status: domain.MatchIndexMissing}
		}
		u.logger.Error("job index query failed", zap.Error(err))
		return domain.JobMatches{Status: domain.MatchFailed}
	}
	if len(hits) == 0 {
		return domain.JobMatches{Status: domain.MatchNone}
	}

	result := domain.JobMatches{Status: domain.MatchOK, Matches: make([]domain.Match, 0, len(hits))}
	for _, h := range hits {
		result.Matches = append(result.Matches, domain.Match{
			JobTitle: h.ID,
			Document: h.Document,
			Distance: h.Distance,
		})
	}

	u.cache.Put(ctx, query, k, result)
	return result
}
