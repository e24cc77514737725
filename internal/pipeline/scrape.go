package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/observability"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

// ScrapeResult is the outcome of an author publication scrape.
type ScrapeResult struct {
	// Publications are the deduplicated papers found across all sources.
	Publications []*domain.Paper `json:"publications"`

	// ExtractedSkills are the skill labels matched in the publications.
	ExtractedSkills []string `json:"extractedSkills"`

	// TotalFound is len(Publications), kept for response compatibility.
	TotalFound int `json:"totalFound"`

	// SourceErrors records per-source failures. A failed source simply
	// contributes nothing; the scrape succeeds if any source answered.
	SourceErrors []string `json:"sourceErrors,omitempty"`
}

// Scraper fans an author search out to every enabled source concurrently
// and folds the answers into one deduplicated publication list.
type Scraper struct {
	registry *sources.Registry
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewScraper wires a scraper from its collaborators.
func NewScraper(registry *sources.Registry, metrics *observability.Metrics, logger zerolog.Logger) *Scraper {
	return &Scraper{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With().Str("component", "scraper").Logger(),
	}
}

// ScrapeAuthor searches all enabled sources for the author's publications.
// Individual source failures degrade to empty contributions; the scrape
// itself only fails when every source failed.
func (s *Scraper) ScrapeAuthor(ctx context.Context, authorName string, maxResults int) (*ScrapeResult, error) {
	query := sources.AuthorQuery{
		Name:       authorName,
		MaxResults: maxResults,
	}

	outcomes := s.registry.SearchAuthorAll(ctx, query)
	if len(outcomes) == 0 {
		return nil, domain.NewValidationError("sources", "no publication sources are enabled")
	}

	var papers []*domain.Paper
	var sourceErrors []string
	failures := 0

	for _, outcome := range outcomes {
		s.metrics.SearchesStarted.WithLabelValues(string(outcome.Source)).Inc()

		if outcome.Error != nil {
			failures++
			s.metrics.SearchesFailed.WithLabelValues(string(outcome.Source)).Inc()
			srcLogger := observability.WithSourceContext(s.logger, string(outcome.Source))
			srcLogger.Warn().
				Err(outcome.Error).
				Str("author", authorName).
				Msg("author search failed")
			sourceErrors = append(sourceErrors, fmt.Sprintf("%s: %v", outcome.Source, outcome.Error))
			continue
		}

		s.metrics.PapersFetched.WithLabelValues(string(outcome.Source)).Add(float64(len(outcome.Papers)))
		papers = append(papers, outcome.Papers...)
	}

	if failures == len(outcomes) {
		return nil, fmt.Errorf("all sources failed for author %q", authorName)
	}

	unique := Deduplicate(papers)
	if dropped := len(papers) - len(unique); dropped > 0 {
		s.metrics.PapersDeduplicated.Add(float64(dropped))
	}

	s.logger.Info().
		Str("author", authorName).
		Int("papers", len(papers)).
		Int("unique", len(unique)).
		Msg("author scrape finished")

	return &ScrapeResult{
		Publications:    unique,
		ExtractedSkills: ExtractSkills(unique),
		TotalFound:      len(unique),
		SourceErrors:    sourceErrors,
	}, nil
}
