package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// Compile-time interface verification.
var _ SkillRepository = (*PgSkillRepository)(nil)

// PgSkillRepository is a PostgreSQL implementation of SkillRepository.
type PgSkillRepository struct {
	db DBTX
}

// NewPgSkillRepository creates a new PostgreSQL skill repository.
func NewPgSkillRepository(db DBTX) *PgSkillRepository {
	return &PgSkillRepository{db: db}
}

// UpsertSkill inserts the skill if missing and returns its ID either way.
// The no-op DO UPDATE makes RETURNING yield the existing row's ID on conflict.
func (r *PgSkillRepository) UpsertSkill(ctx context.Context, name, category string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, domain.NewValidationError("name", "skill name is required")
	}

	query := `
		INSERT INTO skills (id, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, uuid.New(), name, nullableString(category)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert skill: %w", err)
	}
	return id, nil
}

// LinkSkill associates a skill with a candidate at the given proficiency.
func (r *PgSkillRepository) LinkSkill(ctx context.Context, candidateID, skillID uuid.UUID, proficiency domain.ProficiencyLevel) error {
	query := `
		INSERT INTO candidate_skills (candidate_id, skill_id, proficiency_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (candidate_id, skill_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, candidateID, skillID, string(proficiency)); err != nil {
		return fmt.Errorf("failed to link skill: %w", err)
	}
	return nil
}

// UpsertResearchArea inserts the research area if missing and returns its ID.
func (r *PgSkillRepository) UpsertResearchArea(ctx context.Context, name string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, domain.NewValidationError("name", "research area name is required")
	}

	query := `
		INSERT INTO research_areas (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, uuid.New(), name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert research area: %w", err)
	}
	return id, nil
}

// LinkResearchArea associates a research area with a candidate.
func (r *PgSkillRepository) LinkResearchArea(ctx context.Context, candidateID, areaID uuid.UUID) error {
	query := `
		INSERT INTO candidate_research_areas (candidate_id, research_area_id)
		VALUES ($1, $2)
		ON CONFLICT (candidate_id, research_area_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, candidateID, areaID); err != nil {
		return fmt.Errorf("failed to link research area: %w", err)
	}
	return nil
}

// CountSkillLinks returns the total number of candidate-skill links.
func (r *PgSkillRepository) CountSkillLinks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM candidate_skills`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count skill links: %w", err)
	}
	return count, nil
}
