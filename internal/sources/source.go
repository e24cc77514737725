// Package sources defines the interfaces and shared plumbing for academic
// publication source clients.
//
// Each upstream database (OpenAlex, Semantic Scholar, CrossRef) implements
// the Source interface, allowing the recruiting pipeline to query multiple
// sources with a unified API. Institution-scoped searches feed the candidate
// population pipeline; author-scoped searches feed per-author publication
// scraping.
//
// Example usage:
//
//	src := openalex.New(cfg, httpClient, logger)
//	papers, err := src.SearchInstitution(ctx, sources.InstitutionQuery{
//		University: "Stanford University",
//		FromYear:   2021,
//		MaxResults: 100,
//	})
package sources

import (
	"context"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// InstitutionQuery defines the parameters for an institution-scoped
// publication search.
type InstitutionQuery struct {
	// University is the institution display name to search for (required).
	University string

	// FromYear filters publications to those published in or after this year.
	// A value of 0 applies no lower bound.
	FromYear int

	// ToYear filters publications to those published in or before this year.
	// A value of 0 applies no upper bound.
	ToYear int

	// MinCitations filters publications to those with at least this many
	// citations. A value of 0 applies no citation filter. Not every source
	// supports server-side citation filtering; those that don't ignore it.
	MinCitations int

	// MaxResults limits the number of publications returned.
	// A value of 0 uses the source's configured default.
	MaxResults int
}

// AuthorQuery defines the parameters for an author-scoped publication search.
type AuthorQuery struct {
	// Name is the author display name to search for (required).
	Name string

	// MaxResults limits the number of publications returned.
	// A value of 0 uses the source's configured default.
	MaxResults int
}

// Source defines the interface that all publication source clients implement.
//
// Implementations should:
//   - Respect context cancellation
//   - Apply rate limiting as needed
//   - Transform source-specific responses to domain.Paper
//   - Include appropriate error wrapping with source context
type Source interface {
	// SearchInstitution queries the source for publications affiliated with
	// the given institution. A source with nothing to say returns an empty
	// slice and a nil error; callers treat errors and empty results alike as
	// a signal to move on to the next source or strategy.
	SearchInstitution(ctx context.Context, q InstitutionQuery) ([]*domain.Paper, error)

	// SearchAuthor queries the source for publications by the given author
	// name. Matching is by display name, so results may include homonyms;
	// callers are expected to tolerate that.
	SearchAuthor(ctx context.Context, q AuthorQuery) ([]*domain.Paper, error)

	// SourceType returns the type identifier for this source.
	// Used for attribution, deduplication, and routing.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this source.
	// Used for logging, metrics, and display purposes.
	Name() string

	// IsEnabled returns whether this source is currently enabled and
	// available for searches. A source may be disabled due to configuration
	// or a missing API key.
	IsEnabled() bool
}
