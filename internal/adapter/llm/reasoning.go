package llm

import (
	"regexp"
	"strings"

	"careerpath/internal/port"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// SplitReasoning separates <think>...</think> segments from a raw model reply.
// An unterminated <think> keeps the remainder as reasoning.
func SplitReasoning(raw string) port.Completion {
	var reasoning []string
	text := thinkBlock.ReplaceAllStringFunc(raw, func(block string) string {
		m := thinkBlock.FindStringSubmatch(block)
		reasoning = append(reasoning, strings.TrimSpace(m[1]))
		return ""
	})

	if i := strings.Index(text, "<think>"); i >= 0 {
		reasoning = append(reasoning, strings.TrimSpace(text[i+len("<think>"):]))
		text = text[:i]
	}

	return port.Completion{
		Text:         strings.TrimSpace(text),
		Reasoning:    strings.Join(reasoning, "\n"),
		HadReasoning: len(reasoning) > 0,
	}
}
