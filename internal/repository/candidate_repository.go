package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// CandidateRepository handles candidate persistence.
type CandidateRepository interface {
	// Create inserts a new candidate and returns it with its assigned ID
	// and timestamps. Returns domain.ErrAlreadyExists when a candidate
	// with the same name already exists.
	Create(ctx context.Context, candidate *domain.Candidate) (*domain.Candidate, error)

	// GetByID retrieves a candidate by its UUID, including publications.
	// Returns domain.ErrNotFound if no matching candidate exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)

	// ExistsByName reports whether a candidate with the exact name exists.
	// Population runs use this to skip already-known authors.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// List retrieves candidates matching the filter criteria.
	// Returns the matching candidates and a total count for pagination.
	// The total count reflects all matching rows regardless of limit/offset.
	List(ctx context.Context, filter CandidateFilter) ([]*domain.Candidate, int64, error)

	// Count returns the total number of candidates.
	Count(ctx context.Context) (int64, error)

	// Recent returns the most recently created candidates, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Candidate, error)

	// UniversityDistribution returns candidate counts grouped by
	// university, ordered by count descending.
	UniversityDistribution(ctx context.Context) ([]UniversityCount, error)
}

// UniversityCount is one row of the university distribution.
type UniversityCount struct {
	University string `json:"university"`
	Count      int64  `json:"count"`
}

// CandidateFilter specifies criteria for listing candidates.
type CandidateFilter struct {
	// University filters to candidates from a specific university (optional).
	University *string

	// GraduationYear filters to candidates with this graduation year (optional).
	GraduationYear *int

	// Search matches case-insensitively against name and department (optional).
	Search string

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks the filter values and applies pagination defaults.
func (f *CandidateFilter) Validate() error {
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
