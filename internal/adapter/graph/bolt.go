package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"careerpath/internal/domain"
	"careerpath/internal/port"
)

var (
	bucketJobs      = []byte("jobs")
	bucketSkills    = []byte("skills")
	bucketUsers     = []byte("users")
	bucketCourses   = []byte("courses")
	bucketRequires  = []byte("requires")
	bucketHasSkill  = []byte("has_skill")
	bucketLearnedBy = []byte("learned_by")
	bucketAimFor    = []byte("aim_for")
)

// Edge keys are "<from>\x00<to>" so a prefix scan lists a node's neighbours.
const edgeSep = 0x00

// BoltStore is the embedded graph backend. Nodes live in one bucket per label
// keyed by their uniqueness key; edges are composite keys in one bucket per
// relationship type. bbolt's single writer makes every put a merge.
type BoltStore struct {
	db *bbolt.DB
}

type jobNode struct {
	Title string `json:"title"`
}

type skillNode struct {
	Name string `json:"name"`
}

type userNode struct {
	Email string `json:"email"`
}

type courseNode struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create graph dir: %v", port.ErrStoreUnavailable, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open graph %s: %v", port.ErrStoreUnavailable, path, err)
	}

	s := &BoltStore{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the node and edge buckets. Bucket keys are the
// uniqueness constraints.
func (s *BoltStore) EnsureSchema(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketJobs, bucketSkills, bucketUsers, bucketCourses, bucketRequires, bucketHasSkill, bucketLearnedBy, bucketAimFor}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func edgeKey(from, to string) []byte {
	k := make([]byte, 0, len(from)+len(to)+1)
	k = append(k, from...)
	k = append(k, edgeSep)
	return append(k, to...)
}

// neighbours returns the target keys of every edge leaving from.
func neighbours(b *bbolt.Bucket, from string) []string {
	prefix := append([]byte(from), edgeSep)
	var out []string
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		out = append(out, string(k[len(prefix):]))
	}
	return out
}

// putIfAbsent stores value under key unless the key already exists, matching
// MERGE ... ON CREATE SET.
func putIfAbsent(b *bbolt.Bucket, key string, value any) error {
	if b.Get([]byte(key)) != nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func mergeJob(tx *bbolt.Tx, title string) (string, error) {
	key := domain.JobKey(title)
	if key == "" {
		return "", fmt.Errorf("empty job title")
	}
	return key, putIfAbsent(tx.Bucket(bucketJobs), key, jobNode{Title: domain.JobTitle(title)})
}

func mergeSkill(tx *bbolt.Tx, name string) (string, error) {
	key := domain.SkillKey(name)
	if key == "" {
		return "", fmt.Errorf("empty skill name")
	}
	return key, putIfAbsent(tx.Bucket(bucketSkills), key, skillNode{Name: domain.SkillName(name)})
}

func mergeUser(tx *bbolt.Tx, email string) (string, error) {
	key := domain.Email(email)
	if key == "" {
		return "", fmt.Errorf("empty email")
	}
	return key, putIfAbsent(tx.Bucket(bucketUsers), key, userNode{Email: key})
}

func mergeRequires(tx *bbolt.Tx, jobTitle, skill string) error {
	jobKey, err := mergeJob(tx, jobTitle)
	if err != nil {
		return err
	}
	skillKey, err := mergeSkill(tx, skill)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketRequires).Put(edgeKey(jobKey, skillKey), nil)
}

func (s *BoltStore) UpsertJobSkill(ctx context.Context, jobTitle, skill string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return mergeRequires(tx, jobTitle, skill)
	})
}

func (s *BoltStore) UpsertUserSkills(ctx context.Context, email string, skills []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		userKey, err := mergeUser(tx, email)
		if err != nil {
			return err
		}
		edges := tx.Bucket(bucketHasSkill)
		for _, skill := range skills {
			if err := ctx.Err(); err != nil {
				return err
			}
			skillKey, err := mergeSkill(tx, skill)
			if err != nil {
				continue
			}
			if err := edges.Put(edgeKey(userKey, skillKey), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func skillNames(tx *bbolt.Tx, keys []string) []string {
	nodes := tx.Bucket(bucketSkills)
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		var node skillNode
		if data := nodes.Get([]byte(key)); data != nil && json.Unmarshal(data, &node) == nil {
			names = append(names, node.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *BoltStore) SkillsForJob(ctx context.Context, title string) (domain.JobSkills, error) {
	var result domain.JobSkills
	key := domain.JobKey(title)

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketJobs).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", port.ErrJobNotFound, domain.JobTitle(title))
		}
		var node jobNode
		if err := json.Unmarshal(data, &node); err != nil {
			return err
		}
		result.Title = node.Title
		result.Skills = skillNames(tx, neighbours(tx.Bucket(bucketRequires), key))
		return nil
	})
	return result, err
}

func (s *BoltStore) ImportBatch(ctx context.Context, rows []domain.JobSkills) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, skill := range row.Skills {
				if err := mergeRequires(tx, row.Title, skill); err != nil {
					return fmt.Errorf("import %q: %w", row.Title, err)
				}
			}
		}
		return nil
	})
}

func (s *BoltStore) JobDocuments(ctx context.Context) ([]domain.JobSkills, error) {
	var docs []domain.JobSkills
	err := s.db.View(func(tx *bbolt.Tx) error {
		requires := tx.Bucket(bucketRequires)
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			skills := skillNames(tx, neighbours(requires, string(k)))
			if len(skills) == 0 {
				return nil
			}
			var node jobNode
			if err := json.Unmarshal(v, &node); err != nil {
				return nil // Skip corrupted entries
			}
			docs = append(docs, domain.JobSkills{Title: node.Title, Skills: skills})
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) UpsertCourse(ctx context.Context, skill string, course domain.Course) error {
	title := domain.CollapseSpaces(course.Title)
	if title == "" {
		return fmt.Errorf("empty course title")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		skillKey, err := mergeSkill(tx, skill)
		if err != nil {
			return err
		}
		// Course URL is updated on match, title is the key.
		data, err := json.Marshal(courseNode{Title: title, URL: course.URL})
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCourses).Put([]byte(title), data); err != nil {
			return err
		}
		return tx.Bucket(bucketLearnedBy).Put(edgeKey(skillKey, title), nil)
	})
}

func (s *BoltStore) CoursesForSkill(ctx context.Context, skill string) ([]domain.Course, error) {
	var courses []domain.Course
	err := s.db.View(func(tx *bbolt.Tx) error {
		nodes := tx.Bucket(bucketCourses)
		for _, title := range neighbours(tx.Bucket(bucketLearnedBy), domain.SkillKey(skill)) {
			var node courseNode
			if data := nodes.Get([]byte(title)); data != nil && json.Unmarshal(data, &node) == nil {
				courses = append(courses, domain.Course{Title: node.Title, URL: node.URL})
			}
		}
		return nil
	})
	return courses, err
}

func (s *BoltStore) SetUserTarget(ctx context.Context, email, jobTitle string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		userKey, err := mergeUser(tx, email)
		if err != nil {
			return err
		}
		jobKey, err := mergeJob(tx, jobTitle)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAimFor).Put(edgeKey(userKey, jobKey), nil)
	})
}

// UserTargets returns the titles of every job role the user aims for.
func (s *BoltStore) UserTargets(ctx context.Context, email string) ([]string, error) {
	var titles []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		jobs := tx.Bucket(bucketJobs)
		for _, key := range neighbours(tx.Bucket(bucketAimFor), domain.Email(email)) {
			var node jobNode
			if data := jobs.Get([]byte(key)); data != nil && json.Unmarshal(data, &node) == nil {
				titles = append(titles, node.Title)
			}
		}
		return nil
	})
	return titles, err
}

func (s *BoltStore) UserSkills(ctx context.Context, email string) ([]string, error) {
	var skills []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		skills = skillNames(tx, neighbours(tx.Bucket(bucketHasSkill), domain.Email(email)))
		return nil
	})
	return skills, err
}
