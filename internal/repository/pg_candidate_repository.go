package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// PostgreSQL error codes used for error mapping.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
)

// Compile-time interface verification.
var _ CandidateRepository = (*PgCandidateRepository)(nil)

// PgCandidateRepository is a PostgreSQL implementation of CandidateRepository.
type PgCandidateRepository struct {
	db DBTX
}

// NewPgCandidateRepository creates a new PostgreSQL candidate repository.
func NewPgCandidateRepository(db DBTX) *PgCandidateRepository {
	return &PgCandidateRepository{db: db}
}

// Create inserts a new candidate.
func (r *PgCandidateRepository) Create(ctx context.Context, candidate *domain.Candidate) (*domain.Candidate, error) {
	if candidate == nil {
		return nil, domain.NewValidationError("candidate", "candidate cannot be nil")
	}
	if strings.TrimSpace(candidate.Name) == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO candidates (
			id, name, email, phone, university, department,
			graduation_year, years_experience,
			phd_university, phd_graduation_year, phd_department,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		candidate.ID,
		candidate.Name,
		nullableString(candidate.Email),
		nullableString(candidate.Phone),
		candidate.University,
		nullableString(candidate.Department),
		nullableInt(candidate.GraduationYear),
		candidate.YearsExperience,
		nullableString(candidate.PhDUniversity),
		nullableInt(candidate.PhDGraduationYear),
		nullableString(candidate.PhDDepartment),
		now,
		now,
	).Scan(&candidate.ID, &candidate.CreatedAt, &candidate.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("candidate", candidate.Name)
		}
		return nil, fmt.Errorf("failed to insert candidate: %w", err)
	}

	return candidate, nil
}

// GetByID retrieves a candidate by its UUID, including publications.
func (r *PgCandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	query := `
		SELECT id, name, email, phone, university, department,
			graduation_year, years_experience,
			phd_university, phd_graduation_year, phd_department,
			created_at, updated_at
		FROM candidates
		WHERE id = $1`

	candidate, err := scanCandidate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("candidate", id.String())
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	pubQuery := `
		SELECT id, candidate_id, title, conference, journal, year,
			citations, url, abstract, doi, venue_type, venue_rank,
			source, created_at
		FROM publications
		WHERE candidate_id = $1
		ORDER BY citations DESC`

	rows, err := r.db.Query(ctx, pubQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate publications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		pub, err := scanPublicationFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		candidate.Publications = append(candidate.Publications, *pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publications: %w", err)
	}

	return candidate, nil
}

// ExistsByName reports whether a candidate with the exact name exists.
func (r *PgCandidateRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidates WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check candidate existence: %w", err)
	}
	return exists, nil
}

// List retrieves candidates matching the filter criteria.
func (r *PgCandidateRepository) List(ctx context.Context, filter CandidateFilter) ([]*domain.Candidate, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.University != nil {
		conditions = append(conditions, fmt.Sprintf("university = $%d", argPos))
		args = append(args, *filter.University)
		argPos++
	}
	if filter.GraduationYear != nil {
		conditions = append(conditions, fmt.Sprintf("graduation_year = $%d", argPos))
		args = append(args, *filter.GraduationYear)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR department ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM candidates" + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count candidates: %w", err)
	}

	listQuery := `
		SELECT id, name, email, phone, university, department,
			graduation_year, years_experience,
			phd_university, phd_graduation_year, phd_department,
			created_at, updated_at
		FROM candidates` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidateFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	return candidates, total, nil
}

// Count returns the total number of candidates.
func (r *PgCandidateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return count, nil
}

// Recent returns the most recently created candidates, newest first.
func (r *PgCandidateRepository) Recent(ctx context.Context, limit int) ([]*domain.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, name, email, phone, university, department,
			graduation_year, years_experience,
			phd_university, phd_graduation_year, phd_department,
			created_at, updated_at
		FROM candidates
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidateFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	return candidates, nil
}

// UniversityDistribution returns candidate counts grouped by university.
func (r *PgCandidateRepository) UniversityDistribution(ctx context.Context) ([]UniversityCount, error) {
	query := `
		SELECT university, COUNT(*) AS count
		FROM candidates
		GROUP BY university
		ORDER BY count DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get university distribution: %w", err)
	}
	defer rows.Close()

	var distribution []UniversityCount
	for rows.Next() {
		var entry UniversityCount
		if err := rows.Scan(&entry.University, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan university count: %w", err)
		}
		distribution = append(distribution, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate university counts: %w", err)
	}

	return distribution, nil
}

// candidateScanDest holds the scan destinations for a candidate row,
// including nullable columns.
type candidateScanDest struct {
	candidate         domain.Candidate
	email             *string
	phone             *string
	department        *string
	graduationYear    *int
	phdUniversity     *string
	phdGraduationYear *int
	phdDepartment     *string
}

func (d *candidateScanDest) destinations() []interface{} {
	return []interface{}{
		&d.candidate.ID,
		&d.candidate.Name,
		&d.email,
		&d.phone,
		&d.candidate.University,
		&d.department,
		&d.graduationYear,
		&d.candidate.YearsExperience,
		&d.phdUniversity,
		&d.phdGraduationYear,
		&d.phdDepartment,
		&d.candidate.CreatedAt,
		&d.candidate.UpdatedAt,
	}
}

func (d *candidateScanDest) finalize() *domain.Candidate {
	c := d.candidate
	c.Email = derefString(d.email)
	c.Phone = derefString(d.phone)
	c.Department = derefString(d.department)
	c.GraduationYear = derefInt(d.graduationYear)
	c.PhDUniversity = derefString(d.phdUniversity)
	c.PhDGraduationYear = derefInt(d.phdGraduationYear)
	c.PhDDepartment = derefString(d.phdDepartment)
	return &c
}

// scanCandidate scans a single row into a Candidate.
func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var dest candidateScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanCandidateFromRows scans the current row from pgx.Rows into a Candidate.
func scanCandidateFromRows(rows pgx.Rows) (*domain.Candidate, error) {
	var dest candidateScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// nullableString maps empty strings to NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableInt maps zero to NULL.
func nullableInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
