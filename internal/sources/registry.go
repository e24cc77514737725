package sources

import (
	"context"
	"sync"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// AuthorSearchResult holds the outcome of an author search against one source.
type AuthorSearchResult struct {
	// Source identifies which source produced the result.
	Source domain.SourceType

	// Papers contains the publications if the search succeeded.
	Papers []*domain.Paper

	// Error contains the error if the search failed.
	Error error
}

// Registry manages publication sources. Registration order is preserved:
// the population pipeline consults sources in the order they were
// registered, and first-wins deduplication means that order decides which
// source's copy of a publication survives.
type Registry struct {
	mu      sync.RWMutex
	order   []domain.SourceType
	sources map[domain.SourceType]Source
}

// NewRegistry creates a new source registry with no sources.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]Source),
	}
}

// Register adds a source to the registry. If a source with the same type
// already exists it is replaced in place, keeping its original position.
// This method is thread-safe.
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := source.SourceType()
	if _, exists := r.sources[st]; !exists {
		r.order = append(r.order, st)
	}
	r.sources[st] = source
}

// Get returns a source by type, or nil if not found.
// This method is thread-safe.
func (r *Registry) Get(sourceType domain.SourceType) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// EnabledSources returns the enabled sources in registration order.
// The returned slice is a snapshot and is safe to iterate even if
// sources are added concurrently. This method is thread-safe.
func (r *Registry) EnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.order))
	for _, st := range r.order {
		if s := r.sources[st]; s != nil && s.IsEnabled() {
			sources = append(sources, s)
		}
	}
	return sources
}

// SearchAuthorAll searches all enabled sources for an author concurrently.
// Every source gets its own outcome entry, error or not; the caller decides
// what a partial failure means. Results are returned in registration order.
// This method is thread-safe.
func (r *Registry) SearchAuthorAll(ctx context.Context, q AuthorQuery) []AuthorSearchResult {
	sources := r.EnabledSources()
	if len(sources) == 0 {
		return nil
	}

	results := make([]AuthorSearchResult, len(sources))
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()

			papers, err := s.SearchAuthor(ctx, q)
			results[i] = AuthorSearchResult{
				Source: s.SourceType(),
				Papers: papers,
				Error:  err,
			}
		}(i, source)
	}

	wg.Wait()
	return results
}
