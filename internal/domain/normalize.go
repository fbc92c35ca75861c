package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseSpaces trims s and replaces every whitespace run with a single space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// JobTitle returns the canonical display form of a job title.
func JobTitle(s string) string {
	return CollapseSpaces(s)
}

// JobKey returns the lookup key for a job title. "  Data   Scientist " and
// "data scientist" share a key.
func JobKey(s string) string {
	return strings.ToLower(CollapseSpaces(s))
}

// SkillName returns the canonical stored name of a skill. Existing capitals are
// kept so acronyms survive ("SQL" stays "SQL", "python" becomes "Python").
func SkillName(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	// cases.Caser is stateful and must not be shared between goroutines.
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// SkillKey returns the uniqueness key of a skill.
func SkillKey(s string) string {
	return strings.ToLower(CollapseSpaces(s))
}

func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSkills canonicalizes a skill list, dropping blanks and
// case-insensitive duplicates. The first occurrence wins and order is kept.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, raw := range skills {
		key := SkillKey(raw)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, SkillName(raw))
	}
	return out
}
