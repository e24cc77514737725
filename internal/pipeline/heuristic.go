package pipeline

import (
	"sort"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
)

// CandidateDecision pairs an author aggregate with the heuristic verdict.
type CandidateDecision struct {
	Aggregate *AuthorAggregate

	// IsLikelyPhD is true when all heuristic predicates hold.
	IsLikelyPhD bool

	// EstimatedGraduationYear is max(lastPaperYear+1, currentYear):
	// a still-publishing author hasn't graduated before next year, and
	// nobody is estimated to have graduated in the past.
	EstimatedGraduationYear int
}

// Heuristic flags likely PhD candidates among author aggregates using the
// configured thresholds. The predicates are deliberately shallow: at least
// one paper, a recent-enough last paper, and a citation total inside the
// [min, max] band (below it the author is invisible, above it they are
// presumed established faculty).
type Heuristic struct {
	cfg config.PipelineConfig
}

// NewHeuristic creates a heuristic bound to the given thresholds.
func NewHeuristic(cfg config.PipelineConfig) *Heuristic {
	return &Heuristic{cfg: cfg}
}

// Evaluate judges a single aggregate against the predicates.
func (h *Heuristic) Evaluate(agg *AuthorAggregate, currentYear int) CandidateDecision {
	likely := len(agg.Papers) >= 1 &&
		agg.LastPaperYear >= currentYear-h.cfg.RecentYears &&
		agg.TotalCitations >= h.cfg.MinTotalCitations &&
		agg.TotalCitations <= h.cfg.MaxTotalCitations

	estYear := agg.LastPaperYear + 1
	if estYear < currentYear {
		estYear = currentYear
	}

	return CandidateDecision{
		Aggregate:               agg,
		IsLikelyPhD:             likely,
		EstimatedGraduationYear: estYear,
	}
}

// Identify evaluates all aggregates, keeps the likely candidates, ranks them
// by total citations descending, and truncates to the configured cap.
func (h *Heuristic) Identify(aggregates []*AuthorAggregate, currentYear int) []CandidateDecision {
	candidates := make([]CandidateDecision, 0, len(aggregates))
	for _, agg := range aggregates {
		decision := h.Evaluate(agg, currentYear)
		if decision.IsLikelyPhD {
			candidates = append(candidates, decision)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Aggregate.TotalCitations > candidates[j].Aggregate.TotalCitations
	})

	if len(candidates) > h.cfg.CandidateCap {
		candidates = candidates[:h.cfg.CandidateCap]
	}
	return candidates
}
