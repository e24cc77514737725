package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the recruiting service.
// Metrics are organized by subsystem: population runs, source searches,
// pipeline stages and persistence. All collectors are registered via
// promauto against the registry passed to NewMetrics.
type Metrics struct {
	// RunsStarted counts population runs initiated.
	RunsStarted prometheus.Counter

	// RunsCompleted counts population runs that returned success.
	RunsCompleted prometheus.Counter

	// RunsFailed counts population runs that ended with a fatal failure.
	RunsFailed prometheus.Counter

	// RunDuration observes end-to-end population run duration in seconds.
	RunDuration prometheus.Histogram

	// SearchesStarted counts source searches initiated, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesFailed counts source searches that degraded to an empty
	// result, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// PapersFetched counts normalized papers produced, labeled by source.
	PapersFetched *prometheus.CounterVec

	// PapersDeduplicated counts papers dropped as duplicates.
	PapersDeduplicated prometheus.Counter

	// AuthorsAggregated counts distinct authors produced by aggregation.
	AuthorsAggregated prometheus.Counter

	// CandidatesIdentified counts authors passing the candidate heuristic.
	CandidatesIdentified prometheus.Counter

	// CandidatesAdded counts candidate rows inserted.
	CandidatesAdded prometheus.Counter

	// CandidatesSkipped counts candidates skipped because the name already
	// existed in the store.
	CandidatesSkipped prometheus.Counter

	// PublicationsAdded counts publication rows inserted.
	PublicationsAdded prometheus.Counter

	// SkillsExtracted counts skill labels attributed to candidates.
	SkillsExtracted prometheus.Counter

	// PersistenceFailures counts insert failures by unit of work
	// ("candidate", "publications", "skills").
	PersistenceFailures *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests can pass a fresh
// registry to avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "populate",
			Name:      "runs_started_total",
			Help:      "Total number of population runs initiated.",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "populate",
			Name:      "runs_completed_total",
			Help:      "Total number of population runs completed successfully.",
		}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "populate",
			Name:      "runs_failed_total",
			Help:      "Total number of population runs that hit a fatal failure.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recruit",
			Subsystem: "populate",
			Name:      "run_duration_seconds",
			Help:      "End-to-end population run duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		SearchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sources",
			Name:      "searches_started_total",
			Help:      "Total number of source searches initiated.",
		}, []string{"source"}),
		SearchesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sources",
			Name:      "searches_failed_total",
			Help:      "Total number of source searches that degraded to empty results.",
		}, []string{"source"}),
		PapersFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "sources",
			Name:      "papers_fetched_total",
			Help:      "Total number of normalized papers produced.",
		}, []string{"source"}),
		PapersDeduplicated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "pipeline",
			Name:      "papers_deduplicated_total",
			Help:      "Total number of papers dropped as duplicates.",
		}),
		AuthorsAggregated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "pipeline",
			Name:      "authors_aggregated_total",
			Help:      "Total number of distinct authors produced by aggregation.",
		}),
		CandidatesIdentified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "pipeline",
			Name:      "candidates_identified_total",
			Help:      "Total number of authors passing the candidate heuristic.",
		}),
		CandidatesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "persist",
			Name:      "candidates_added_total",
			Help:      "Total number of candidate rows inserted.",
		}),
		CandidatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "persist",
			Name:      "candidates_skipped_total",
			Help:      "Total number of candidates skipped as already present.",
		}),
		PublicationsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "persist",
			Name:      "publications_added_total",
			Help:      "Total number of publication rows inserted.",
		}),
		SkillsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "pipeline",
			Name:      "skills_extracted_total",
			Help:      "Total number of skill labels attributed to candidates.",
		}),
		PersistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recruit",
			Subsystem: "persist",
			Name:      "failures_total",
			Help:      "Total number of persistence failures by unit of work.",
		}, []string{"unit"}),
	}
}
