package pipeline

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

func TestEstimateEmail(t *testing.T) {
	tests := []struct {
		name       string
		author     string
		university string
		want       string
	}{
		{"known university", "Jane Smith", "Stanford University", "jane.smith@stanford.edu"},
		{"mit domain", "Alan Turing", "MIT", "alan.turing@mit.edu"},
		{"unknown university", "Grace Hopper", "Somewhere State", "grace.hopper@university.edu"},
		{"middle names use first and last", "Jane Q Public", "Caltech", "jane.public@caltech.edu"},
		{"single name", "Cher", "MIT", "cher.cher@mit.edu"},
		{"empty name", "", "MIT", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateEmail(tt.author, tt.university))
		})
	}
}

func TestBuildCandidate(t *testing.T) {
	decision := CandidateDecision{
		Aggregate: &AuthorAggregate{
			DisplayName:    "Jane Smith",
			TotalCitations: 120,
			FirstPaperYear: 2022,
			LastPaperYear:  2024,
		},
		IsLikelyPhD:             true,
		EstimatedGraduationYear: 2025,
	}

	candidate := BuildCandidate(decision, "Stanford University", 2025)

	assert.Equal(t, "Jane Smith", candidate.Name)
	assert.Equal(t, "jane.smith@stanford.edu", candidate.Email)
	assert.Equal(t, "Stanford University", candidate.University)
	assert.Equal(t, "Computer Science", candidate.Department)
	assert.Equal(t, 2025, candidate.GraduationYear)
	assert.Equal(t, 3, candidate.YearsExperience)

	// PhD fields mirror the current affiliation.
	assert.Equal(t, "Stanford University", candidate.PhDUniversity)
	assert.Equal(t, 2025, candidate.PhDGraduationYear)
	assert.Equal(t, "Computer Science", candidate.PhDDepartment)
}

func TestBuildCandidateMinimumExperience(t *testing.T) {
	decision := CandidateDecision{
		Aggregate: &AuthorAggregate{
			DisplayName:    "New Author",
			FirstPaperYear: 2025,
			LastPaperYear:  2025,
		},
		EstimatedGraduationYear: 2026,
	}

	candidate := BuildCandidate(decision, "MIT", 2025)

	assert.Equal(t, 1, candidate.YearsExperience)
}

func TestTopPapers(t *testing.T) {
	papers := []*domain.Paper{
		{Title: "low", Citations: 1},
		{Title: "high", Citations: 100},
		{Title: "mid", Citations: 50},
	}

	top := TopPapers(papers, 2)

	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Title)
	assert.Equal(t, "mid", top[1].Title)

	// Input order is untouched.
	assert.Equal(t, "low", papers[0].Title)
}

func TestBuildPublications(t *testing.T) {
	candidateID := uuid.New()

	t.Run("splits venue into conference or journal", func(t *testing.T) {
		papers := []*domain.Paper{
			{Title: "conf paper", Venue: "NeurIPS", Year: 2024, Citations: 10, Source: domain.SourceTypeOpenAlex},
			{Title: "journal paper", Venue: "Journal of AI", Year: 2023, Citations: 5, Source: domain.SourceTypeCrossRef},
		}

		pubs := BuildPublications(candidateID, papers, 500)

		require.Len(t, pubs, 2)
		assert.Equal(t, "NeurIPS", pubs[0].Conference)
		assert.Empty(t, pubs[0].Journal)
		assert.Equal(t, domain.VenueTypeConference, pubs[0].VenueType)
		assert.Equal(t, domain.VenueRankTopTier, pubs[0].VenueRank)

		assert.Equal(t, "Journal of AI", pubs[1].Journal)
		assert.Empty(t, pubs[1].Conference)
		assert.Equal(t, domain.VenueTypeJournal, pubs[1].VenueType)
		assert.Equal(t, domain.VenueRankOther, pubs[1].VenueRank)
	})

	t.Run("truncates long abstracts", func(t *testing.T) {
		papers := []*domain.Paper{
			{Title: "p", Abstract: strings.Repeat("a", 600)},
		}

		pubs := BuildPublications(candidateID, papers, 500)

		require.Len(t, pubs, 1)
		assert.Len(t, pubs[0].Abstract, 500)
	})

	t.Run("every row carries the candidate ID", func(t *testing.T) {
		papers := []*domain.Paper{{Title: "p"}}

		pubs := BuildPublications(candidateID, papers, 500)

		require.Len(t, pubs, 1)
		assert.Equal(t, candidateID, pubs[0].CandidateID)
	})
}
