package pipeline

import (
	"context"
	"fmt"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// testCandidates are the fixed synthetic candidates inserted by test-mode
// runs. They exercise the persistence path end to end without touching any
// external API.
var testCandidates = []domain.Candidate{
	{
		Name:              "Dr. Test Candidate One",
		Email:             "test1@stanford.edu",
		University:        "Stanford University",
		Department:        "Computer Science",
		GraduationYear:    2024,
		YearsExperience:   3,
		PhDUniversity:     "Stanford University",
		PhDGraduationYear: 2024,
		PhDDepartment:     "Computer Science",
	},
	{
		Name:              "Dr. Test Candidate Two",
		Email:             "test2@mit.edu",
		University:        "MIT",
		Department:        "EECS",
		GraduationYear:    2025,
		YearsExperience:   2,
		PhDUniversity:     "MIT",
		PhDGraduationYear: 2025,
		PhDDepartment:     "Electrical Engineering and Computer Science",
	},
}

// createTestCandidates inserts the synthetic candidates, each with a single
// synthetic top-tier publication. Already-present candidates are skipped.
func (p *Populator) createTestCandidates(ctx context.Context, results *PopulateResults) {
	for _, tc := range testCandidates {
		exists, err := p.candidates.ExistsByName(ctx, tc.Name)
		if err != nil {
			p.logger.Error().Err(err).Str("candidate", tc.Name).Msg("failed to check test candidate existence")
			results.Errors = append(results.Errors, fmt.Sprintf("failed to check test candidate %s: %v", tc.Name, err))
			continue
		}
		if exists {
			p.logger.Info().Str("candidate", tc.Name).Msg("test candidate already exists, skipping")
			p.metrics.CandidatesSkipped.Inc()
			continue
		}

		candidate := tc
		created, err := p.candidates.Create(ctx, &candidate)
		if err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("candidate").Inc()
			p.logger.Error().Err(err).Str("candidate", tc.Name).Msg("failed to create test candidate")
			results.Errors = append(results.Errors, fmt.Sprintf("failed to create test candidate %s: %v", tc.Name, err))
			continue
		}

		results.CandidatesAdded++
		p.metrics.CandidatesAdded.Inc()

		publication := domain.Publication{
			CandidateID: created.ID,
			Title:       "Test Publication by " + created.Name,
			Conference:  "NeurIPS",
			Year:        2023,
			Citations:   50,
			VenueType:   domain.VenueTypeConference,
			VenueRank:   domain.VenueRankTopTier,
			Source:      domain.SourceTypeTest,
		}

		inserted, err := p.publications.CreateBatch(ctx, []domain.Publication{publication}, p.cfg.InsertBatchSize)
		results.PublicationsAdded += inserted
		p.metrics.PublicationsAdded.Add(float64(inserted))
		if err != nil {
			p.metrics.PersistenceFailures.WithLabelValues("publications").Inc()
			p.logger.Error().Err(err).Str("candidate", tc.Name).Msg("failed to insert test publication")
			results.Errors = append(results.Errors, fmt.Sprintf("failed to insert test publication for %s: %v", tc.Name, err))
		}
	}
}
