package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

func TestAggregateByAuthor(t *testing.T) {
	t.Run("groups papers case-insensitively by author name", func(t *testing.T) {
		papers := []*domain.Paper{
			{
				Title: "Paper A", Year: 2023, Citations: 10,
				Authors: []domain.PaperAuthor{{Name: "Jane Smith", ExternalID: "A1", Institutions: []string{"MIT"}}},
			},
			{
				Title: "Paper B", Year: 2024, Citations: 5,
				Authors: []domain.PaperAuthor{{Name: "jane smith", Institutions: []string{"Stanford University"}}},
			},
		}

		aggregates := AggregateByAuthor(papers, 3, 2025)

		require.Len(t, aggregates, 1)
		agg := aggregates[0]
		assert.Equal(t, "jane smith", agg.Key)
		assert.Equal(t, "Jane Smith", agg.DisplayName)
		assert.Equal(t, "A1", agg.ExternalID)
		assert.Len(t, agg.Papers, 2)
		assert.Equal(t, 15, agg.TotalCitations)
		assert.Equal(t, 2023, agg.FirstPaperYear)
		assert.Equal(t, 2024, agg.LastPaperYear)
		assert.Equal(t, []string{"MIT", "Stanford University"}, agg.InstitutionList())
	})

	t.Run("skips names shorter than the minimum", func(t *testing.T) {
		papers := []*domain.Paper{
			{Title: "P", Year: 2024, Authors: []domain.PaperAuthor{
				{Name: "Li"},
				{Name: "  X "},
				{Name: "Ada Lovelace"},
			}},
		}

		aggregates := AggregateByAuthor(papers, 3, 2025)

		require.Len(t, aggregates, 1)
		assert.Equal(t, "Ada Lovelace", aggregates[0].DisplayName)
	})

	t.Run("missing year counts as the current year", func(t *testing.T) {
		papers := []*domain.Paper{
			{Title: "Undated", Authors: []domain.PaperAuthor{{Name: "Alan Turing"}}},
		}

		aggregates := AggregateByAuthor(papers, 3, 2025)

		require.Len(t, aggregates, 1)
		assert.Equal(t, 2025, aggregates[0].FirstPaperYear)
		assert.Equal(t, 2025, aggregates[0].LastPaperYear)
	})

	t.Run("preserves first-encounter order", func(t *testing.T) {
		papers := []*domain.Paper{
			{Title: "One", Year: 2024, Authors: []domain.PaperAuthor{{Name: "Bob Jones"}, {Name: "Carol White"}}},
			{Title: "Two", Year: 2024, Authors: []domain.PaperAuthor{{Name: "Alice Brown"}}},
		}

		aggregates := AggregateByAuthor(papers, 3, 2025)

		require.Len(t, aggregates, 3)
		assert.Equal(t, "Bob Jones", aggregates[0].DisplayName)
		assert.Equal(t, "Carol White", aggregates[1].DisplayName)
		assert.Equal(t, "Alice Brown", aggregates[2].DisplayName)
	})
}
