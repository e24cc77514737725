// Package domain provides domain models and business logic for the PhD recruiting service.
package domain

// SourceType represents the external API that provided paper data.
// These values are stored verbatim in the publications.source column.
type SourceType string

const (
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeCrossRef        SourceType = "crossref"
	// SourceTypeTest marks rows created by test-mode population runs.
	SourceTypeTest SourceType = "test"
)

// VenueType classifies a publication venue.
// These values must match the database enum venue_type.
type VenueType string

const (
	VenueTypeConference VenueType = "conference"
	VenueTypeJournal    VenueType = "journal"
)

// VenueRank is a coarse prestige classification of a publication venue.
// These values must match the database enum venue_rank.
//
// VenueRankMidTier exists in the schema but no classification rule currently
// produces it; the ranking is effectively two-way (top-tier or other).
type VenueRank string

const (
	VenueRankTopTier VenueRank = "top-tier"
	VenueRankMidTier VenueRank = "mid-tier"
	VenueRankOther   VenueRank = "other"
)

// ProficiencyLevel represents a candidate's proficiency with a skill.
// These values must match the database enum proficiency_level.
type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
	ProficiencyExpert       ProficiencyLevel = "expert"
)
