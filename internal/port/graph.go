package port

import (
	"context"
	"errors"

	"careerpath/internal/domain"
)

var (
	// ErrJobNotFound is returned when no job role matches a title lookup.
	ErrJobNotFound = errors.New("job role not found")

	// ErrStoreUnavailable wraps connection failures to a backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// GraphStore persists the User/Skill/JobRole/Course property graph.
// Every write is a merge on the node's unique key, so repeated or concurrent
// submissions never create duplicate nodes or edges.
type GraphStore interface {
	// EnsureSchema creates the uniqueness constraints the merges rely on.
	EnsureSchema(ctx context.Context) error

	// UpsertJobSkill merges JobRole, Skill and the REQUIRES edge between them.
	UpsertJobSkill(ctx context.Context, jobTitle, skill string) error

	// UpsertUserSkills merges the User, each Skill and a HAS_SKILL edge per skill in one transaction.
	UpsertUserSkills(ctx context.Context, email string, skills []string) error

	// SkillsForJob looks a job role up by normalized title.
	// Returns ErrJobNotFound when no role matches.
	SkillsForJob(ctx context.Context, title string) (domain.JobSkills, error)

	// ImportBatch merges every row of the batch in a single transaction.
	ImportBatch(ctx context.Context, rows []domain.JobSkills) error

	// JobDocuments returns every job role that requires at least one skill.
	JobDocuments(ctx context.Context) ([]domain.JobSkills, error)

	// UpsertCourse merges a Course and the LEARNED_BY edge from the skill.
	UpsertCourse(ctx context.Context, skill string, course domain.Course) error

	CoursesForSkill(ctx context.Context, skill string) ([]domain.Course, error)

	// SetUserTarget merges the AIM_FOR edge from a user to a job role.
	SetUserTarget(ctx context.Context, email, jobTitle string) error

	// UserTargets returns the titles of the job roles a user aims for.
	UserTargets(ctx context.Context, email string) ([]string, error)

	UserSkills(ctx context.Context, email string) ([]string, error)

	Close() error
}
