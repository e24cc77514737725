package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// SkillRepository handles the skill and research-area lookup tables and
// their candidate links.
type SkillRepository interface {
	// UpsertSkill inserts the skill if missing and returns its ID either way.
	UpsertSkill(ctx context.Context, name, category string) (uuid.UUID, error)

	// LinkSkill associates a skill with a candidate at the given
	// proficiency. Linking the same pair twice is a no-op.
	LinkSkill(ctx context.Context, candidateID, skillID uuid.UUID, proficiency domain.ProficiencyLevel) error

	// UpsertResearchArea inserts the research area if missing and returns
	// its ID either way.
	UpsertResearchArea(ctx context.Context, name string) (uuid.UUID, error)

	// LinkResearchArea associates a research area with a candidate.
	// Linking the same pair twice is a no-op.
	LinkResearchArea(ctx context.Context, candidateID, areaID uuid.UUID) error

	// CountSkillLinks returns the total number of candidate-skill links.
	CountSkillLinks(ctx context.Context) (int64, error)
}
