package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// candidateColumnNames mirrors the SELECT column order of candidate queries.
var candidateColumnNames = []string{
	"id", "name", "email", "phone", "university", "department",
	"graduation_year", "years_experience",
	"phd_university", "phd_graduation_year", "phd_department",
	"created_at", "updated_at",
}

// Helper to create a valid candidate for testing.
func newTestCandidate() *domain.Candidate {
	now := time.Now().UTC()
	return &domain.Candidate{
		ID:                uuid.New(),
		Name:              "Dr. Alice Chen",
		Email:             "alice.chen@stanford.edu",
		University:        "Stanford University",
		Department:        "Computer Science",
		GraduationYear:    2025,
		YearsExperience:   3,
		PhDUniversity:     "Stanford University",
		PhDGraduationYear: 2025,
		PhDDepartment:     "Computer Science",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func candidateRow(c *domain.Candidate) *pgxmock.Rows {
	return pgxmock.NewRows(candidateColumnNames).AddRow(
		c.ID, c.Name, nullableString(c.Email), nullableString(c.Phone),
		c.University, nullableString(c.Department),
		nullableInt(c.GraduationYear), c.YearsExperience,
		nullableString(c.PhDUniversity), nullableInt(c.PhDGraduationYear),
		nullableString(c.PhDDepartment),
		c.CreatedAt, c.UpdatedAt,
	)
}

func TestNewPgCandidateRepository(t *testing.T) {
	t.Run("creates repository with mock db", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestPgCandidateRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates candidate successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()

		mock.ExpectQuery("INSERT INTO candidates").
			WithArgs(
				pgxmock.AnyArg(), candidate.Name, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.University, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.YearsExperience, pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(candidate.ID, candidate.CreatedAt, candidate.UpdatedAt))

		result, err := repo.Create(ctx, candidate)
		require.NoError(t, err)
		assert.Equal(t, candidate.ID, result.ID)
		assert.Equal(t, candidate.Name, result.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigns an ID when missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()
		candidate.ID = uuid.Nil

		mock.ExpectQuery("INSERT INTO candidates").
			WithArgs(
				pgxmock.AnyArg(), candidate.Name, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.University, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.YearsExperience, pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(uuid.New(), candidate.CreatedAt, candidate.UpdatedAt))

		result, err := repo.Create(ctx, candidate)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for nil candidate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		result, err := repo.Create(ctx, nil)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "candidate", validationErr.Field)
	})

	t.Run("returns validation error for blank name", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()
		candidate.Name = "   "

		result, err := repo.Create(ctx, candidate)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "name", validationErr.Field)
	})

	t.Run("returns already exists error for unique constraint violation", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()

		pgErr := &pgconn.PgError{Code: pgUniqueViolation}
		mock.ExpectQuery("INSERT INTO candidates").
			WithArgs(
				pgxmock.AnyArg(), candidate.Name, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.University, pgxmock.AnyArg(), pgxmock.AnyArg(),
				candidate.YearsExperience, pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(pgErr)

		result, err := repo.Create(ctx, candidate)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCandidateRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns candidate with publications", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()

		mock.ExpectQuery("SELECT .* FROM candidates\\s+WHERE id = \\$1").
			WithArgs(candidate.ID).
			WillReturnRows(candidateRow(candidate))

		pubID := uuid.New()
		now := time.Now().UTC()
		pubRows := pgxmock.NewRows(publicationColumnNames).AddRow(
			pubID, candidate.ID, "Neural Routing at Scale",
			nullableString("NeurIPS"), nullableString(""), nullableInt(2024),
			87, nullableString("https://doi.org/10.1000/x"), nullableString("abstract"),
			nullableString("10.1000/x"), "conference", "top-tier", "openalex", now,
		)
		mock.ExpectQuery("SELECT .* FROM publications\\s+WHERE candidate_id = \\$1").
			WithArgs(candidate.ID).
			WillReturnRows(pubRows)

		result, err := repo.GetByID(ctx, candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, candidate.ID, result.ID)
		assert.Equal(t, candidate.Email, result.Email)
		assert.Equal(t, candidate.GraduationYear, result.GraduationYear)
		require.Len(t, result.Publications, 1)
		assert.Equal(t, pubID, result.Publications[0].ID)
		assert.Equal(t, "NeurIPS", result.Publications[0].Conference)
		assert.Equal(t, domain.VenueRankTopTier, result.Publications[0].VenueRank)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error when not exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM candidates\\s+WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByID(ctx, id)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCandidateRepository_ExistsByName(t *testing.T) {
	ctx := context.Background()

	t.Run("returns true when candidate exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Dr. Alice Chen").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.ExistsByName(ctx, "Dr. Alice Chen")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false when candidate does not exist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Unknown Person").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.ExistsByName(ctx, "Unknown Person")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCandidateRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists candidates with no filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM candidates").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

		mock.ExpectQuery("SELECT .* FROM candidates ORDER BY created_at DESC LIMIT \\$1 OFFSET \\$2").
			WithArgs(100, 0).
			WillReturnRows(candidateRow(candidate))

		results, total, err := repo.List(ctx, CandidateFilter{Limit: 100})
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, candidate.ID, results[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by university and search", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		university := "MIT"

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM candidates WHERE university = \\$1 AND \\(name ILIKE \\$2 OR department ILIKE \\$2\\)").
			WithArgs(university, "%chen%").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

		mock.ExpectQuery("SELECT .* FROM candidates WHERE university = \\$1 AND \\(name ILIKE \\$2 OR department ILIKE \\$2\\)").
			WithArgs(university, "%chen%", 100, 0).
			WillReturnRows(pgxmock.NewRows(candidateColumnNames))

		results, total, err := repo.List(ctx, CandidateFilter{
			University: &university,
			Search:     "chen",
		})
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, int64(0), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies default limit", func(t *testing.T) {
		filter := CandidateFilter{}
		require.NoError(t, filter.Validate())
		assert.Equal(t, 100, filter.Limit)
	})

	t.Run("caps max limit", func(t *testing.T) {
		filter := CandidateFilter{Limit: 5000}
		require.NoError(t, filter.Validate())
		assert.Equal(t, 1000, filter.Limit)
	})
}

func TestPgCandidateRepository_Count(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgCandidateRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM candidates").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCandidateRepository_Recent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns recent candidates", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)
		candidate := newTestCandidate()

		mock.ExpectQuery("SELECT .* FROM candidates\\s+ORDER BY created_at DESC\\s+LIMIT \\$1").
			WithArgs(5).
			WillReturnRows(candidateRow(candidate))

		results, err := repo.Recent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, candidate.Name, results[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults non-positive limit to 10", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCandidateRepository(mock)

		mock.ExpectQuery("SELECT .* FROM candidates\\s+ORDER BY created_at DESC\\s+LIMIT \\$1").
			WithArgs(10).
			WillReturnRows(pgxmock.NewRows(candidateColumnNames))

		results, err := repo.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCandidateRepository_UniversityDistribution(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgCandidateRepository(mock)

	mock.ExpectQuery("SELECT university, COUNT\\(\\*\\) AS count\\s+FROM candidates\\s+GROUP BY university").
		WillReturnRows(pgxmock.NewRows([]string{"university", "count"}).
			AddRow("Stanford University", int64(7)).
			AddRow("MIT", int64(3)))

	distribution, err := repo.UniversityDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, distribution, 2)
	assert.Equal(t, UniversityCount{University: "Stanford University", Count: 7}, distribution[0])
	assert.Equal(t, UniversityCount{University: "MIT", Count: 3}, distribution[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateScanDest(t *testing.T) {
	t.Run("destinations returns correct number of pointers", func(t *testing.T) {
		var dest candidateScanDest
		assert.Len(t, dest.destinations(), len(candidateColumnNames))
	})

	t.Run("finalize maps nil columns to zero values", func(t *testing.T) {
		dest := candidateScanDest{
			candidate: domain.Candidate{ID: uuid.New(), Name: "Dr. Bo Li", University: "Caltech"},
		}
		result := dest.finalize()
		assert.Empty(t, result.Email)
		assert.Empty(t, result.Department)
		assert.Zero(t, result.GraduationYear)
		assert.Zero(t, result.PhDGraduationYear)
	})
}
