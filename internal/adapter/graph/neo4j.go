package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"careerpath/internal/domain"
	"careerpath/internal/port"
)

var neo4jConstraints = []string{
	"CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	"CREATE CONSTRAINT job_key IF NOT EXISTS FOR (j:JobRole) REQUIRE j.key IS UNIQUE",
	"CREATE CONSTRAINT skill_key IF NOT EXISTS FOR (s:Skill) REQUIRE s.key IS UNIQUE",
	"CREATE CONSTRAINT course_title IF NOT EXISTS FOR (c:Course) REQUIRE c.title IS UNIQUE",
}

const (
	cypherMergeRequires = `
UNWIND $rows AS row
MERGE (j:JobRole {key: row.job_key})
  ON CREATE SET j.title = row.job_title
WITH j, row
UNWIND row.skills AS skill
MERGE (s:Skill {key: skill.key})
  ON CREATE SET s.name = skill.name
MERGE (j)-[:REQUIRES]->(s)`

	cypherMergeUserSkills = `
MERGE (u:User {email: $email})
WITH u
UNWIND $skills AS skill
MERGE (s:Skill {key: skill.key})
  ON CREATE SET s.name = skill.name
MERGE (u)-[:HAS_SKILL]->(s)`

	cypherSkillsForJob = `
MATCH (j:JobRole {key: $key})
OPTIONAL MATCH (j)-[:REQUIRES]->(s:Skill)
RETURN j.title AS title, [name IN collect(s.name) WHERE name IS NOT NULL] AS skills`

	cypherJobDocuments = `
MATCH (j:JobRole)-[:REQUIRES]->(s:Skill)
RETURN j.title AS title, collect(s.name) AS skills
ORDER BY title`

	cypherMergeCourse = `
MERGE (s:Skill {key: $skill_key})
  ON CREATE SET s.name = $skill_name
MERGE (c:Course {title: $title})
SET c.url = $url
MERGE (s)-[:LEARNED_BY]->(c)`

	cypherCoursesForSkill = `
MATCH (:Skill {key: $key})-[:LEARNED_BY]->(c:Course)
RETURN c.title AS title, c.url AS url
ORDER BY title`

	cypherSetTarget = `
MERGE (u:User {email: $email})
MERGE (j:JobRole {key: $job_key})
  ON CREATE SET j.title = $job_title
MERGE (u)-[:AIM_FOR]->(j)`

	cypherUserTargets = `
MATCH (:User {email: $email})-[:AIM_FOR]->(j:JobRole)
RETURN j.title AS title
ORDER BY title`

	cypherUserSkills = `
MATCH (:User {email: $email})-[:HAS_SKILL]->(s:Skill)
RETURN s.name AS name
ORDER BY name`
)

// Neo4jStore is the Neo4j graph backend. One driver is shared for the
// process; each operation opens a short-lived session.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jStore(ctx context.Context, uri, username, password, database string) (*Neo4jStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: neo4j uri is not configured", port.ErrStoreUnavailable)
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: create neo4j driver: %v", port.ErrStoreUnavailable, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("%w: connect to neo4j: %v", port.ErrStoreUnavailable, err)
	}

	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   mode,
	})
}

func (s *Neo4jStore) write(ctx context.Context, cypher string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (s *Neo4jStore) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range neo4jConstraints {
		if err := s.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}
	return nil
}

func skillParams(skills []string) []map[string]any {
	out := make([]map[string]any, 0, len(skills))
	for _, name := range domain.NormalizeSkills(skills) {
		out = append(out, map[string]any{"key": domain.SkillKey(name), "name": name})
	}
	return out
}

func rowParams(rows []domain.JobSkills) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		key := domain.JobKey(row.Title)
		if key == "" {
			continue
		}
		out = append(out, map[string]any{
			"job_key":   key,
			"job_title": domain.JobTitle(row.Title),
			"skills":    skillParams(row.Skills),
		})
	}
	return out
}

func (s *Neo4jStore) UpsertJobSkill(ctx context.Context, jobTitle, skill string) error {
	rows := rowParams([]domain.JobSkills{{Title: jobTitle, Skills: []string{skill}}})
	return s.write(ctx, cypherMergeRequires, map[string]any{"rows": rows})
}

func (s *Neo4jStore) UpsertUserSkills(ctx context.Context, email string, skills []string) error {
	return s.write(ctx, cypherMergeUserSkills, map[string]any{
		"email":  domain.Email(email),
		"skills": skillParams(skills),
	})
}

func (s *Neo4jStore) SkillsForJob(ctx context.Context, title string) (domain.JobSkills, error) {
	records, err := s.read(ctx, cypherSkillsForJob, map[string]any{"key": domain.JobKey(title)})
	if err != nil {
		return domain.JobSkills{}, err
	}
	if len(records) == 0 {
		return domain.JobSkills{}, fmt.Errorf("%w: %s", port.ErrJobNotFound, domain.JobTitle(title))
	}

	rec := records[0]
	result := domain.JobSkills{Title: stringValue(rec, "title"), Skills: stringList(rec, "skills")}
	sort.Strings(result.Skills)
	return result, nil
}

func (s *Neo4jStore) ImportBatch(ctx context.Context, rows []domain.JobSkills) error {
	return s.write(ctx, cypherMergeRequires, map[string]any{"rows": rowParams(rows)})
}

func (s *Neo4jStore) JobDocuments(ctx context.Context) ([]domain.JobSkills, error) {
	records, err := s.read(ctx, cypherJobDocuments, nil)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.JobSkills, 0, len(records))
	for _, rec := range records {
		skills := stringList(rec, "skills")
		sort.Strings(skills)
		docs = append(docs, domain.JobSkills{Title: stringValue(rec, "title"), Skills: skills})
	}
	return docs, nil
}

func (s *Neo4jStore) UpsertCourse(ctx context.Context, skill string, course domain.Course) error {
	return s.write(ctx, cypherMergeCourse, map[string]any{
		"skill_key":  domain.SkillKey(skill),
		"skill_name": domain.SkillName(skill),
		"title":      domain.CollapseSpaces(course.Title),
		"url":        course.URL,
	})
}

func (s *Neo4jStore) CoursesForSkill(ctx context.Context, skill string) ([]domain.Course, error) {
	records, err := s.read(ctx, cypherCoursesForSkill, map[string]any{"key": domain.SkillKey(skill)})
	if err != nil {
		return nil, err
	}
	courses := make([]domain.Course, 0, len(records))
	for _, rec := range records {
		courses = append(courses, domain.Course{Title: stringValue(rec, "title"), URL: stringValue(rec, "url")})
	}
	return courses, nil
}

func (s *Neo4jStore) SetUserTarget(ctx context.Context, email, jobTitle string) error {
	return s.write(ctx, cypherSetTarget, map[string]any{
		"email":     domain.Email(email),
		"job_key":   domain.JobKey(jobTitle),
		"job_title": domain.JobTitle(jobTitle),
	})
}

func (s *Neo4jStore) UserTargets(ctx context.Context, email string) ([]string, error) {
	return s.readStrings(ctx, cypherUserTargets, "title", map[string]any{"email": domain.Email(email)})
}

func (s *Neo4jStore) UserSkills(ctx context.Context, email string) ([]string, error) {
	return s.readStrings(ctx, cypherUserSkills, "name", map[string]any{"email": domain.Email(email)})
}

func (s *Neo4jStore) readStrings(ctx context.Context, cypher, column string, params map[string]any) ([]string, error) {
	records, err := s.read(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, stringValue(rec, column))
	}
	return out, nil
}

func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

func stringList(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
