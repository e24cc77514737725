package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/observability"
	"github.com/scoutlab/phd-recruiting-service/internal/repository"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

// PopulateRequest carries the parameters of one population run.
type PopulateRequest struct {
	// Universities lists the institutions to search. The run processes at
	// most the configured maximum, in order.
	Universities []string

	// MinCitations is the per-paper citation floor passed to the sources.
	MinCitations int

	// MaxCandidates is accepted for API compatibility but the configured
	// candidate cap governs; see the populate handler for validation.
	MaxCandidates int

	// GraduationYears is accepted but not used by the current heuristic;
	// graduation years are estimated from publication activity instead.
	GraduationYears []int

	// TestMode bypasses all network calls and inserts fixed synthetic
	// candidates, exercising only the persistence path.
	TestMode bool
}

// UniversityResult summarizes one institution's search outcome.
type UniversityResult struct {
	University           string `json:"university"`
	PapersFound          int    `json:"papersFound"`
	CandidatesIdentified int    `json:"candidatesIdentified"`
}

// PopulateResults accumulates counters and errors across a run.
type PopulateResults struct {
	CandidatesAdded   int                `json:"candidatesAdded"`
	PublicationsAdded int                `json:"publicationsAdded"`
	SkillsExtracted   int                `json:"skillsExtracted"`
	Errors            []string           `json:"errors"`
	SearchResults     []UniversityResult `json:"searchResults"`
}

// PopulateOutcome is the structured result of a population run. Success is
// false only for fatal failures; per-candidate and per-university failures
// are recorded in Results.Errors and the run keeps going.
type PopulateOutcome struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Results PopulateResults `json:"results"`
}

// Populator runs the candidate population pipeline: fetch publications per
// university, deduplicate, aggregate by author, apply the heuristic, and
// persist surviving candidates with their best publications and skills.
type Populator struct {
	cfg          config.PipelineConfig
	registry     *sources.Registry
	heuristic    *Heuristic
	candidates   repository.CandidateRepository
	publications repository.PublicationRepository
	skills       repository.SkillRepository
	metrics      *observability.Metrics
	logger       zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewPopulator wires a populator from its collaborators.
func NewPopulator(
	cfg config.PipelineConfig,
	registry *sources.Registry,
	candidates repository.CandidateRepository,
	publications repository.PublicationRepository,
	skills repository.SkillRepository,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Populator {
	return &Populator{
		cfg:          cfg,
		registry:     registry,
		heuristic:    NewHeuristic(cfg),
		candidates:   candidates,
		publications: publications,
		skills:       skills,
		metrics:      metrics,
		logger:       logger.With().Str("component", "populator").Logger(),
		now:          time.Now,
	}
}

// Run executes one population run. It always returns a structured outcome;
// a fatal failure (context cancellation between institutions) flips Success
// to false but still reports whatever was accomplished.
func (p *Populator) Run(ctx context.Context, req PopulateRequest) PopulateOutcome {
	started := p.now()
	p.metrics.RunsStarted.Inc()
	defer func() {
		p.metrics.RunDuration.Observe(p.now().Sub(started).Seconds())
	}()

	results := PopulateResults{
		Errors:        []string{},
		SearchResults: []UniversityResult{},
	}

	if req.TestMode {
		p.logger.Info().Msg("running population in test mode")
		p.createTestCandidates(ctx, &results)
		p.metrics.RunsCompleted.Inc()
		return PopulateOutcome{
			Success: true,
			Message: fmt.Sprintf("Test mode: created %d test candidates", results.CandidatesAdded),
			Results: results,
		}
	}

	universities := req.Universities
	if len(universities) > p.cfg.MaxUniversitiesPerRun {
		p.logger.Warn().
			Int("requested", len(universities)).
			Int("limit", p.cfg.MaxUniversitiesPerRun).
			Msg("capping universities for this run")
		universities = universities[:p.cfg.MaxUniversitiesPerRun]
	}

	for i, university := range universities {
		if err := ctx.Err(); err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("population aborted: %v", err))
			p.metrics.RunsFailed.Inc()
			return PopulateOutcome{
				Success: false,
				Message: "Population completed with fatal error",
				Results: results,
			}
		}

		p.processUniversity(ctx, university, req.MinCitations, &results)

		// Fixed pause between institutions to stay friendly to the APIs.
		if i < len(universities)-1 {
			if err := p.sleep(ctx, p.cfg.InterInstitutionDelay); err != nil {
				results.Errors = append(results.Errors, fmt.Sprintf("population aborted: %v", err))
				p.metrics.RunsFailed.Inc()
				return PopulateOutcome{
					Success: false,
					Message: "Population completed with fatal error",
					Results: results,
				}
			}
		}
	}

	p.metrics.RunsCompleted.Inc()
	return PopulateOutcome{
		Success: true,
		Message: fmt.Sprintf("Successfully populated database with %d candidates", results.CandidatesAdded),
		Results: results,
	}
}

// processUniversity runs the whole pipeline for one institution. Failures
// are recorded and swallowed; the run continues with the next institution.
func (p *Populator) processUniversity(ctx context.Context, university string, minCitations int, results *PopulateResults) {
	logger := observability.WithUniversityContext(p.logger, university)
	logger.Info().Msg("processing university")

	papers := p.searchUniversity(ctx, university, minCitations)
	unique := Deduplicate(papers)
	if dropped := len(papers) - len(unique); dropped > 0 {
		p.metrics.PapersDeduplicated.Add(float64(dropped))
	}
	logger.Info().
		Int("papers", len(papers)).
		Int("unique", len(unique)).
		Msg("search finished")

	if len(unique) == 0 {
		results.SearchResults = append(results.SearchResults, UniversityResult{
			University: university,
		})
		return
	}

	currentYear := p.now().Year()
	aggregates := AggregateByAuthor(unique, p.cfg.MinAuthorNameLen, currentYear)
	p.metrics.AuthorsAggregated.Add(float64(len(aggregates)))

	decisions := p.heuristic.Identify(aggregates, currentYear)
	p.metrics.CandidatesIdentified.Add(float64(len(decisions)))
	logger.Info().
		Int("authors", len(aggregates)).
		Int("candidates", len(decisions)).
		Msg("candidate identification finished")

	results.SearchResults = append(results.SearchResults, UniversityResult{
		University:           university,
		PapersFound:          len(unique),
		CandidatesIdentified: len(decisions),
	})

	if len(decisions) > p.cfg.PerUniversityLimit {
		decisions = decisions[:p.cfg.PerUniversityLimit]
	}

	for _, decision := range decisions {
		if err := p.persistCandidate(ctx, decision, university, results); err != nil {
			logger.Error().
				Err(err).
				Str("candidate", decision.Aggregate.DisplayName).
				Msg("failed to persist candidate")
			results.Errors = append(results.Errors,
				fmt.Sprintf("failed to process candidate %s: %v", decision.Aggregate.DisplayName, err))
		}
	}
}

// searchUniversity queries every enabled source for the institution and
// concatenates the results. Source failures degrade to empty contributions.
func (p *Populator) searchUniversity(ctx context.Context, university string, minCitations int) []*domain.Paper {
	query := sources.InstitutionQuery{
		University:   university,
		FromYear:     p.now().Year() - p.cfg.InstitutionYearWindow,
		MinCitations: minCitations,
	}
	if query.MinCitations < 1 {
		query.MinCitations = 1
	}

	var papers []*domain.Paper
	for _, source := range p.registry.EnabledSources() {
		p.metrics.SearchesStarted.WithLabelValues(string(source.SourceType())).Inc()

		found, err := source.SearchInstitution(ctx, query)
		if err != nil {
			p.metrics.SearchesFailed.WithLabelValues(string(source.SourceType())).Inc()
			srcLogger := observability.WithSourceContext(p.logger, source.Name())
			srcLogger.Warn().
				Err(err).
				Str("university", university).
				Msg("source search degraded to empty result")
			continue
		}

		p.metrics.PapersFetched.WithLabelValues(string(source.SourceType())).Add(float64(len(found)))
		papers = append(papers, found...)
	}
	return papers
}

// persistCandidate writes one candidate with publications, skills, and
// research areas. Publication and skill failures after the candidate row
// exists are best-effort: logged and recorded, never undone.
func (p *Populator) persistCandidate(ctx context.Context, decision CandidateDecision, university string, results *PopulateResults) error {
	agg := decision.Aggregate
	logger := observability.WithCandidateContext(p.logger, agg.DisplayName)

	exists, err := p.candidates.ExistsByName(ctx, agg.DisplayName)
	if err != nil {
		p.metrics.PersistenceFailures.WithLabelValues("candidate").Inc()
		return fmt.Errorf("checking candidate existence: %w", err)
	}
	if exists {
		logger.Info().Msg("candidate already exists, skipping")
		p.metrics.CandidatesSkipped.Inc()
		return nil
	}

	candidate := BuildCandidate(decision, university, p.now().Year())
	created, err := p.candidates.Create(ctx, &candidate)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Info().Msg("candidate inserted concurrently, skipping")
			p.metrics.CandidatesSkipped.Inc()
			return nil
		}
		p.metrics.PersistenceFailures.WithLabelValues("candidate").Inc()
		return fmt.Errorf("inserting candidate: %w", err)
	}

	results.CandidatesAdded++
	p.metrics.CandidatesAdded.Inc()
	logger.Info().Str("candidate_id", created.ID.String()).Msg("candidate created")

	top := TopPapers(agg.Papers, p.cfg.TopPapersPerCandidate)
	publications := BuildPublications(created.ID, top, p.cfg.AbstractMaxLen)

	inserted, err := p.publications.CreateBatch(ctx, publications, p.cfg.InsertBatchSize)
	results.PublicationsAdded += inserted
	p.metrics.PublicationsAdded.Add(float64(inserted))
	if err != nil {
		// No transaction spans candidate + publications: the candidate row
		// stays even when its publications fail.
		p.metrics.PersistenceFailures.WithLabelValues("publications").Inc()
		logger.Error().Err(err).Msg("failed to insert publications")
		results.Errors = append(results.Errors,
			fmt.Sprintf("failed to insert publications for %s: %v", agg.DisplayName, err))
	}

	skills := ExtractSkills(agg.Papers)
	p.linkSkills(ctx, created.ID, skills, logger)
	results.SkillsExtracted += len(skills)
	p.metrics.SkillsExtracted.Add(float64(len(skills)))

	for _, area := range ExtractResearchAreas(agg.Papers) {
		areaID, err := p.skills.UpsertResearchArea(ctx, area)
		if err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("research_areas").Inc()
			logger.Warn().Err(err).Str("research_area", area).Msg("failed to upsert research area")
			continue
		}
		if err := p.skills.LinkResearchArea(ctx, created.ID, areaID); err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("research_areas").Inc()
			logger.Warn().Err(err).Str("research_area", area).Msg("failed to link research area")
		}
	}

	return nil
}

// linkSkills upserts and links skills best-effort; failures are logged and
// counted but never fail the candidate.
func (p *Populator) linkSkills(ctx context.Context, candidateID uuid.UUID, skills []string, logger zerolog.Logger) {
	for _, skill := range skills {
		skillID, err := p.skills.UpsertSkill(ctx, skill, "technical")
		if err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("skills").Inc()
			logger.Warn().Err(err).Str("skill", skill).Msg("failed to upsert skill")
			continue
		}
		if err := p.skills.LinkSkill(ctx, candidateID, skillID, domain.ProficiencyIntermediate); err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("skills").Inc()
			logger.Warn().Err(err).Str("skill", skill).Msg("failed to link skill")
		}
	}
}

// sleep pauses for d, respecting context cancellation.
func (p *Populator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
