package port

import (
	"context"

	"careerpath/internal/domain"
)

// MatchCache caches successful job searches keyed by query text and k.
type MatchCache interface {
	Get(ctx context.Context, query string, k int) (domain.JobMatches, bool)
	Put(ctx context.Context, query string, k int, matches domain.JobMatches)
	// Invalidate drops every entry; called after the index is rebuilt.
	Invalidate(ctx context.Context)
}
