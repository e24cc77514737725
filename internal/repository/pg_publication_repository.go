package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// Compile-time interface verification.
var _ PublicationRepository = (*PgPublicationRepository)(nil)

// PgPublicationRepository is a PostgreSQL implementation of PublicationRepository.
type PgPublicationRepository struct {
	db DBTX
}

// NewPgPublicationRepository creates a new PostgreSQL publication repository.
func NewPgPublicationRepository(db DBTX) *PgPublicationRepository {
	return &PgPublicationRepository{db: db}
}

// publicationColumns is the column list shared by the insert and select queries.
const publicationColumns = `id, candidate_id, title, conference, journal, year,
	citations, url, abstract, doi, venue_type, venue_rank, source, created_at`

// CreateBatch inserts publications in chunks of at most batchSize rows each.
func (r *PgPublicationRepository) CreateBatch(ctx context.Context, publications []domain.Publication, batchSize int) (int, error) {
	if len(publications) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		return 0, domain.NewValidationError("batch_size", "batch size must be positive")
	}

	inserted := 0
	for start := 0; start < len(publications); start += batchSize {
		end := start + batchSize
		if end > len(publications) {
			end = len(publications)
		}

		n, err := r.insertChunk(ctx, publications[start:end])
		inserted += n
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// insertChunk inserts one chunk with a single multi-row INSERT statement.
func (r *PgPublicationRepository) insertChunk(ctx context.Context, chunk []domain.Publication) (int, error) {
	const columnsPerRow = 14
	now := time.Now().UTC()

	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*columnsPerRow)

	for i := range chunk {
		pub := &chunk[i]
		if pub.ID == uuid.Nil {
			pub.ID = uuid.New()
		}
		if pub.CreatedAt.IsZero() {
			pub.CreatedAt = now
		}

		base := i * columnsPerRow
		marks := make([]string, columnsPerRow)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		args = append(args,
			pub.ID,
			pub.CandidateID,
			pub.Title,
			nullableString(pub.Conference),
			nullableString(pub.Journal),
			nullableInt(pub.Year),
			pub.Citations,
			nullableString(pub.URL),
			nullableString(pub.Abstract),
			nullableString(pub.DOI),
			string(pub.VenueType),
			string(pub.VenueRank),
			string(pub.Source),
			pub.CreatedAt,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO publications (%s) VALUES %s",
		publicationColumns,
		strings.Join(placeholders, ", "),
	)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert publication batch: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByCandidate retrieves a candidate's publications ordered by citations.
func (r *PgPublicationRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]domain.Publication, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM publications
		WHERE candidate_id = $1
		ORDER BY citations DESC`, publicationColumns)

	rows, err := r.db.Query(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	var publications []domain.Publication
	for rows.Next() {
		pub, err := scanPublicationFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		publications = append(publications, *pub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publications: %w", err)
	}

	return publications, nil
}

// Count returns the total number of publications.
func (r *PgPublicationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM publications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count publications: %w", err)
	}
	return count, nil
}

// publicationScanDest holds the scan destinations for a publication row.
type publicationScanDest struct {
	pub        domain.Publication
	conference *string
	journal    *string
	year       *int
	url        *string
	abstract   *string
	doi        *string
}

func (d *publicationScanDest) destinations() []interface{} {
	return []interface{}{
		&d.pub.ID,
		&d.pub.CandidateID,
		&d.pub.Title,
		&d.conference,
		&d.journal,
		&d.year,
		&d.pub.Citations,
		&d.url,
		&d.abstract,
		&d.doi,
		&d.pub.VenueType,
		&d.pub.VenueRank,
		&d.pub.Source,
		&d.pub.CreatedAt,
	}
}

func (d *publicationScanDest) finalize() *domain.Publication {
	p := d.pub
	p.Conference = derefString(d.conference)
	p.Journal = derefString(d.journal)
	p.Year = derefInt(d.year)
	p.URL = derefString(d.url)
	p.Abstract = derefString(d.abstract)
	p.DOI = derefString(d.doi)
	return &p
}

// scanPublicationFromRows scans the current row from pgx.Rows into a Publication.
func scanPublicationFromRows(rows pgx.Rows) (*domain.Publication, error) {
	var dest publicationScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}
