package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits skill and job text into lower-cased terms. Symbols that
// carry meaning in skill names are kept inside a term, so "C++", "C#" and
// "Node.js" survive as single terms.
type Tokenizer struct {
	stopwords map[string]struct{}
	fold      bool
}

// NewTokenizer creates a new Tokenizer. With fold set, simple English plurals
// are reduced to their singular form.
func NewTokenizer(fold bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		fold:      fold,
	}
}

// Tokenize splits text into terms, dropping stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(strings.TrimRight(word, "."))
		if word == "" {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.fold {
			word = foldPlural(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}

// splitWords splits text on every rune that cannot be part of a skill term.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !isTermRune(r) })
}

// foldPlural strips a plural suffix from words long enough to have one.
// "engineers" and "engineer" share a term; "kubernetes" and "class" are left
// alone because their endings are not plural markers.
func foldPlural(word string) string {
	n := len(word)
	switch {
	case n <= 3:
		return word
	case strings.HasSuffix(word, "ies") && n > 4:
		return word[:n-3] + "y"
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"), strings.HasSuffix(word, "es"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:n-1]
	}
	return word
}

// defaultStopwords returns common English stopwords plus the fixed words of
// job documents and skill queries.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "with", "this", "have", "i", "me", "my",
		"or", "so", "can", "do", "does", "which", "who", "what",
		"someone", "knows", "know", "need", "needed", "needs",
		"job", "jobs", "requires", "require", "required", "skills", "skill",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
