package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

func heuristicConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MinTotalCitations: 1,
		MaxTotalCitations: 10000,
		RecentYears:       2,
		CandidateCap:      20,
	}
}

func aggWith(name string, citations, lastYear int) *AuthorAggregate {
	return &AuthorAggregate{
		DisplayName:    name,
		Papers:         []*domain.Paper{{Title: "p"}},
		TotalCitations: citations,
		FirstPaperYear: lastYear,
		LastPaperYear:  lastYear,
	}
}

func TestHeuristicEvaluate(t *testing.T) {
	h := NewHeuristic(heuristicConfig())
	const currentYear = 2025

	t.Run("active recent author is likely", func(t *testing.T) {
		d := h.Evaluate(aggWith("A", 50, 2024), currentYear)
		assert.True(t, d.IsLikelyPhD)
		assert.Equal(t, 2025, d.EstimatedGraduationYear)
	})

	t.Run("stale last paper disqualifies", func(t *testing.T) {
		d := h.Evaluate(aggWith("B", 50, 2022), currentYear)
		assert.False(t, d.IsLikelyPhD)
	})

	t.Run("zero citations disqualifies", func(t *testing.T) {
		d := h.Evaluate(aggWith("C", 0, 2024), currentYear)
		assert.False(t, d.IsLikelyPhD)
	})

	t.Run("too many citations disqualifies", func(t *testing.T) {
		d := h.Evaluate(aggWith("D", 10001, 2024), currentYear)
		assert.False(t, d.IsLikelyPhD)
	})

	t.Run("no papers disqualifies", func(t *testing.T) {
		agg := &AuthorAggregate{DisplayName: "E", TotalCitations: 5, LastPaperYear: 2025}
		d := h.Evaluate(agg, currentYear)
		assert.False(t, d.IsLikelyPhD)
	})

	t.Run("graduation estimate never lies in the past", func(t *testing.T) {
		d := h.Evaluate(aggWith("F", 5, 2023), currentYear)
		assert.Equal(t, currentYear, d.EstimatedGraduationYear)
	})

	t.Run("future paper pushes estimate past the current year", func(t *testing.T) {
		d := h.Evaluate(aggWith("G", 5, 2025), currentYear)
		assert.Equal(t, 2026, d.EstimatedGraduationYear)
	})
}

func TestHeuristicIdentify(t *testing.T) {
	const currentYear = 2025

	t.Run("ranks by citations descending", func(t *testing.T) {
		h := NewHeuristic(heuristicConfig())
		aggregates := []*AuthorAggregate{
			aggWith("low", 10, 2024),
			aggWith("high", 500, 2024),
			aggWith("mid", 100, 2024),
			aggWith("stale", 999, 2020),
		}

		decisions := h.Identify(aggregates, currentYear)

		require.Len(t, decisions, 3)
		assert.Equal(t, "high", decisions[0].Aggregate.DisplayName)
		assert.Equal(t, "mid", decisions[1].Aggregate.DisplayName)
		assert.Equal(t, "low", decisions[2].Aggregate.DisplayName)
	})

	t.Run("truncates at the cap", func(t *testing.T) {
		cfg := heuristicConfig()
		cfg.CandidateCap = 2
		h := NewHeuristic(cfg)

		aggregates := []*AuthorAggregate{
			aggWith("a", 1, 2024),
			aggWith("b", 2, 2024),
			aggWith("c", 3, 2024),
		}

		decisions := h.Identify(aggregates, currentYear)

		require.Len(t, decisions, 2)
		assert.Equal(t, "c", decisions[0].Aggregate.DisplayName)
		assert.Equal(t, "b", decisions[1].Aggregate.DisplayName)
	})

	t.Run("empty input", func(t *testing.T) {
		h := NewHeuristic(heuristicConfig())
		assert.Empty(t, h.Identify(nil, currentYear))
	})
}
