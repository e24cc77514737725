package pipeline

import (
	"sort"
	"strings"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// AuthorAggregate folds every paper attributed to one author name into a
// single record the candidate heuristic can judge.
type AuthorAggregate struct {
	// Key is the lowercased, trimmed author name used for grouping.
	Key string

	// DisplayName is the author name as it first appeared.
	DisplayName string

	// ExternalID is the first non-empty source-specific author ID seen.
	ExternalID string

	// Papers are the author's papers in encounter order.
	Papers []*domain.Paper

	// TotalCitations sums citations over Papers.
	TotalCitations int

	// Institutions is the set of institution names seen on the author's
	// papers, keyed by the exact name.
	Institutions map[string]struct{}

	// FirstPaperYear and LastPaperYear bound the author's publication years.
	// Papers with no year count as the current year.
	FirstPaperYear int
	LastPaperYear  int
}

// InstitutionList returns the institution set as a sorted slice.
func (a *AuthorAggregate) InstitutionList() []string {
	names := make([]string, 0, len(a.Institutions))
	for name := range a.Institutions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AggregateByAuthor groups papers by author name. Author names shorter than
// minNameLen runes (after trimming) are skipped; they are almost always
// initials or parse artifacts. currentYear substitutes for papers with no
// publication year. Aggregates come back in first-encounter order.
func AggregateByAuthor(papers []*domain.Paper, minNameLen, currentYear int) []*AuthorAggregate {
	byKey := make(map[string]*AuthorAggregate)
	var order []string

	for _, paper := range papers {
		year := paper.Year
		if year == 0 {
			year = currentYear
		}

		for _, author := range paper.Authors {
			name := strings.TrimSpace(author.Name)
			if len([]rune(name)) < minNameLen {
				continue
			}
			key := strings.ToLower(name)

			agg, ok := byKey[key]
			if !ok {
				agg = &AuthorAggregate{
					Key:            key,
					DisplayName:    name,
					Institutions:   make(map[string]struct{}),
					FirstPaperYear: year,
					LastPaperYear:  year,
				}
				byKey[key] = agg
				order = append(order, key)
			}

			agg.Papers = append(agg.Papers, paper)
			agg.TotalCitations += paper.Citations
			if author.ExternalID != "" && agg.ExternalID == "" {
				agg.ExternalID = author.ExternalID
			}
			for _, inst := range author.Institutions {
				agg.Institutions[inst] = struct{}{}
			}
			if year < agg.FirstPaperYear {
				agg.FirstPaperYear = year
			}
			if year > agg.LastPaperYear {
				agg.LastPaperYear = year
			}
		}
	}

	aggregates := make([]*AuthorAggregate, 0, len(order))
	for _, key := range order {
		aggregates = append(aggregates, byKey[key])
	}
	return aggregates
}
