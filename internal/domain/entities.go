package domain

import (
	"fmt"
	"strings"
)

// JobRolesCollection is the vector collection shared by the index builder and all readers.
const JobRolesCollection = "job_roles"

// JobSkills is a job role together with the skills it requires.
type JobSkills struct {
	Title  string   `json:"job_title"`
	Skills []string `json:"skills"`
}

type Course struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Document is a vector index record.
type Document struct {
	ID     string
	Text   string
	Vector []float32
}

// Hit is a single nearest-neighbour result. Lower distance is more similar.
type Hit struct {
	ID       string
	Document string
	Distance float64
}

// JobDocumentText composes the indexed text for a job role.
func JobDocumentText(title string, skills []string) string {
	return fmt.Sprintf("Job: %s requires skills: %s", title, strings.Join(skills, ", "))
}

// SkillQueryText composes the query text for a skill list.
func SkillQueryText(skills []string) string {
	return "Skills: " + strings.Join(skills, ", ")
}

type MatchStatus string

const (
	MatchOK           MatchStatus = "ok"
	MatchIndexMissing MatchStatus = "index_missing"
	MatchNone         MatchStatus = "no_matches"
	MatchFailed       MatchStatus = "failed"
)

const (
	MsgIndexMissing = "Job-roles collection is empty. Run `careerpath index` first."
	MsgNoMatches    = "No matching job roles found."
	MsgMatchFailed  = "Error occurred while searching for jobs."
)

// Match is one ranked job recommendation.
type Match struct {
	JobTitle string  `json:"job_title"`
	Document string  `json:"document"`
	Distance float64 `json:"distance"`
}

// JobMatches is the outcome of a job search. Matches is only populated when Status is MatchOK.
type JobMatches struct {
	Status  MatchStatus `json:"status"`
	Matches []Match     `json:"matches"`
}

// Documents returns the ranked document texts, or a single explanatory line
// when the search did not succeed.
func (m JobMatches) Documents() []string {
	switch m.Status {
	case MatchOK:
		docs := make([]string, 0, len(m.Matches))
		for _, match := range m.Matches {
			docs = append(docs, match.Document)
		}
		return docs
	case MatchIndexMissing:
		return []string{MsgIndexMissing}
	case MatchFailed:
		return []string{MsgMatchFailed}
	default:
		return []string{MsgNoMatches}
	}
}
