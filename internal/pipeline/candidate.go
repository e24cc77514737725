package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// universityDomains maps known university names to their mail domains.
// Unknown universities get the generic placeholder domain; the synthesized
// address is an estimate for recruiters, not a verified contact.
var universityDomains = map[string]string{
	"Stanford University":        "stanford.edu",
	"MIT":                        "mit.edu",
	"Carnegie Mellon University": "cmu.edu",
	"UC Berkeley":                "berkeley.edu",
	"Caltech":                    "caltech.edu",
}

// defaultDepartment is used when nothing better can be inferred. Paper
// metadata doesn't carry department affiliations, so this stands in for all
// candidates surfaced by the pipeline.
const defaultDepartment = "Computer Science"

// EstimateEmail synthesizes a first.last@domain address from the author's
// display name and university.
func EstimateEmail(name, university string) string {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) == 0 {
		return ""
	}
	first := parts[0]
	last := parts[len(parts)-1]

	domainName, ok := universityDomains[university]
	if !ok {
		domainName = "university.edu"
	}
	return fmt.Sprintf("%s.%s@%s", first, last, domainName)
}

// InferDepartment guesses the candidate's department from their papers.
func InferDepartment(papers []*domain.Paper) string {
	return defaultDepartment
}

// BuildCandidate assembles a persistable candidate row from a heuristic
// decision. The PhD fields mirror the current affiliation: the pipeline has
// no signal separating a candidate's doctoral institution from where they
// publish now.
func BuildCandidate(decision CandidateDecision, university string, currentYear int) domain.Candidate {
	agg := decision.Aggregate

	yearsExperience := currentYear - agg.FirstPaperYear
	if yearsExperience < 1 {
		yearsExperience = 1
	}

	department := InferDepartment(agg.Papers)

	return domain.Candidate{
		Name:              agg.DisplayName,
		Email:             EstimateEmail(agg.DisplayName, university),
		University:        university,
		Department:        department,
		GraduationYear:    decision.EstimatedGraduationYear,
		YearsExperience:   yearsExperience,
		PhDUniversity:     university,
		PhDGraduationYear: decision.EstimatedGraduationYear,
		PhDDepartment:     department,
	}
}

// TopPapers returns up to n of the author's papers ranked by citations
// descending. The input slice is not modified.
func TopPapers(papers []*domain.Paper, n int) []*domain.Paper {
	ranked := make([]*domain.Paper, len(papers))
	copy(ranked, papers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Citations > ranked[j].Citations
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// BuildPublications converts papers to publication rows owned by the given
// candidate, classifying venues and truncating abstracts to maxAbstractLen.
func BuildPublications(candidateID uuid.UUID, papers []*domain.Paper, maxAbstractLen int) []domain.Publication {
	publications := make([]domain.Publication, 0, len(papers))
	for _, paper := range papers {
		venueType := ClassifyVenueType(paper.Venue)

		pub := domain.Publication{
			CandidateID: candidateID,
			Title:       paper.Title,
			Year:        paper.Year,
			Citations:   paper.Citations,
			URL:         paper.URL,
			Abstract:    truncate(paper.Abstract, maxAbstractLen),
			DOI:         paper.DOI,
			VenueType:   venueType,
			VenueRank:   ClassifyVenueRank(paper.Venue),
			Source:      paper.Source,
		}
		if venueType == domain.VenueTypeJournal {
			pub.Journal = paper.Venue
		} else {
			pub.Conference = paper.Venue
		}
		publications = append(publications, pub)
	}
	return publications
}

// truncate clips s to at most max runes.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
