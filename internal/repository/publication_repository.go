package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// PublicationRepository handles publication persistence.
type PublicationRepository interface {
	// CreateBatch inserts publications in chunks of at most batchSize rows
	// per statement. It returns the number of rows inserted. A failure in
	// one chunk aborts the remainder; rows from earlier chunks stay
	// inserted, matching the pipeline's best-effort persistence contract.
	CreateBatch(ctx context.Context, publications []domain.Publication, batchSize int) (int, error)

	// ListByCandidate retrieves a candidate's publications ordered by
	// citations descending.
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]domain.Publication, error)

	// Count returns the total number of publications.
	Count(ctx context.Context) (int64, error)
}
