package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"careerpath/internal/domain"
	"careerpath/internal/port"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS job_roles (
		key   TEXT PRIMARY KEY,
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		key  TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		email      TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		title TEXT PRIMARY KEY,
		url   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS job_requires (
		job_key   TEXT NOT NULL REFERENCES job_roles(key),
		skill_key TEXT NOT NULL REFERENCES skills(key),
		PRIMARY KEY (job_key, skill_key)
	)`,
	`CREATE TABLE IF NOT EXISTS user_has_skill (
		email     TEXT NOT NULL REFERENCES users(email),
		skill_key TEXT NOT NULL REFERENCES skills(key),
		PRIMARY KEY (email, skill_key)
	)`,
	`CREATE TABLE IF NOT EXISTS skill_learned_by (
		skill_key    TEXT NOT NULL REFERENCES skills(key),
		course_title TEXT NOT NULL REFERENCES courses(title),
		PRIMARY KEY (skill_key, course_title)
	)`,
	`CREATE TABLE IF NOT EXISTS user_aim_for (
		email   TEXT NOT NULL REFERENCES users(email),
		job_key TEXT NOT NULL REFERENCES job_roles(key),
		PRIMARY KEY (email, job_key)
	)`,
}

// PostgresStore keeps the graph in relational tables: one per node label and
// one per relationship type, each keyed so inserts can use ON CONFLICT.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is not configured", port.ErrStoreUnavailable)
	}

	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %v", port.ErrStoreUnavailable, err)
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", port.ErrStoreUnavailable, err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", port.ErrStoreUnavailable, err)
	}

	return &PostgresStore{pool: p}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// inTx runs fn in one transaction, rolling back on any error.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func pgMergeJob(ctx context.Context, tx pgx.Tx, title string) (string, error) {
	key := domain.JobKey(title)
	if key == "" {
		return "", fmt.Errorf("empty job title")
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO job_roles (key, title) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		key, domain.JobTitle(title),
	)
	return key, err
}

func pgMergeSkill(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	key := domain.SkillKey(name)
	if key == "" {
		return "", fmt.Errorf("empty skill name")
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO skills (key, name) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		key, domain.SkillName(name),
	)
	return key, err
}

func pgMergeUser(ctx context.Context, tx pgx.Tx, email string) (string, error) {
	key := domain.Email(email)
	if key == "" {
		return "", fmt.Errorf("empty email")
	}
	_, err := tx.Exec(ctx, `INSERT INTO users (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, key)
	return key, err
}

func pgMergeRequires(ctx context.Context, tx pgx.Tx, jobTitle, skill string) error {
	jobKey, err := pgMergeJob(ctx, tx, jobTitle)
	if err != nil {
		return err
	}
	skillKey, err := pgMergeSkill(ctx, tx, skill)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO job_requires (job_key, skill_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		jobKey, skillKey,
	)
	return err
}

func (s *PostgresStore) UpsertJobSkill(ctx context.Context, jobTitle, skill string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return pgMergeRequires(ctx, tx, jobTitle, skill)
	})
}

func (s *PostgresStore) UpsertUserSkills(ctx context.Context, email string, skills []string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		userKey, err := pgMergeUser(ctx, tx, email)
		if err != nil {
			return err
		}
		for _, skill := range domain.NormalizeSkills(skills) {
			skillKey, err := pgMergeSkill(ctx, tx, skill)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_has_skill (email, skill_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				userKey, skillKey,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) SkillsForJob(ctx context.Context, title string) (domain.JobSkills, error) {
	var result domain.JobSkills
	key := domain.JobKey(title)

	err := s.pool.QueryRow(ctx, `SELECT title FROM job_roles WHERE key = $1`, key).Scan(&result.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("%w: %s", port.ErrJobNotFound, domain.JobTitle(title))
	}
	if err != nil {
		return result, err
	}

	result.Skills, err = s.queryStrings(ctx,
		`SELECT s.name
		 FROM job_requires r
		 JOIN skills s ON s.key = r.skill_key
		 WHERE r.job_key = $1
		 ORDER BY s.name ASC`,
		key,
	)
	return result, err
}

func (s *PostgresStore) ImportBatch(ctx context.Context, rows []domain.JobSkills) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, row := range rows {
			for _, skill := range row.Skills {
				if err := pgMergeRequires(ctx, tx, row.Title, skill); err != nil {
					return fmt.Errorf("import %q: %w", row.Title, err)
				}
			}
		}
		return nil
	})
}

func (s *PostgresStore) JobDocuments(ctx context.Context) ([]domain.JobSkills, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT j.title, array_agg(s.name ORDER BY s.name)
		 FROM job_roles j
		 JOIN job_requires r ON r.job_key = j.key
		 JOIN skills s ON s.key = r.skill_key
		 GROUP BY j.key, j.title
		 ORDER BY j.title ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobSkills, 0)
	for rows.Next() {
		var js domain.JobSkills
		if err := rows.Scan(&js.Title, &js.Skills); err != nil {
			return nil, err
		}
		out = append(out, js)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) UpsertCourse(ctx context.Context, skill string, course domain.Course) error {
	title := domain.CollapseSpaces(course.Title)
	if title == "" {
		return fmt.Errorf("empty course title")
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		skillKey, err := pgMergeSkill(ctx, tx, skill)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO courses (title, url) VALUES ($1, $2) ON CONFLICT (title) DO UPDATE SET url = EXCLUDED.url`,
			title, course.URL,
		); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO skill_learned_by (skill_key, course_title) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			skillKey, title,
		)
		return err
	})
}

func (s *PostgresStore) CoursesForSkill(ctx context.Context, skill string) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.title, c.url
		 FROM skill_learned_by l
		 JOIN courses c ON c.title = l.course_title
		 WHERE l.skill_key = $1
		 ORDER BY c.title ASC`,
		domain.SkillKey(skill),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Course, 0)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.Title, &c.URL); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) SetUserTarget(ctx context.Context, email, jobTitle string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		userKey, err := pgMergeUser(ctx, tx, email)
		if err != nil {
			return err
		}
		jobKey, err := pgMergeJob(ctx, tx, jobTitle)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO user_aim_for (email, job_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userKey, jobKey,
		)
		return err
	})
}

func (s *PostgresStore) UserTargets(ctx context.Context, email string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT j.title
		 FROM user_aim_for a
		 JOIN job_roles j ON j.key = a.job_key
		 WHERE a.email = $1
		 ORDER BY j.title ASC`,
		domain.Email(email),
	)
}

func (s *PostgresStore) UserSkills(ctx context.Context, email string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT s.name
		 FROM user_has_skill h
		 JOIN skills s ON s.key = h.skill_key
		 WHERE h.email = $1
		 ORDER BY s.name ASC`,
		domain.Email(email),
	)
}

func (s *PostgresStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
