// Package pipeline implements the publication aggregation and candidate
// identification pipeline: deduplicate papers fetched from multiple sources,
// group them by author, apply the PhD-candidate heuristic, classify skills
// and venues, and persist the survivors.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// Deduplicate removes duplicate papers, keeping the first occurrence of each
// key. The key is the normalized DOI when present, else the normalized title;
// papers with neither get a random key and are always kept. Because sources
// are consulted in a fixed order, first-seen-wins makes the earlier source
// authoritative for a given paper. No field merging takes place.
func Deduplicate(papers []*domain.Paper) []*domain.Paper {
	seen := make(map[string]struct{}, len(papers))
	unique := make([]*domain.Paper, 0, len(papers))

	for _, paper := range papers {
		key := paper.DedupeKey()
		if key == "" {
			key = uuid.NewString()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, paper)
	}

	return unique
}
