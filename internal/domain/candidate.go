package domain

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a persisted recruiting prospect. Name is the de-facto
// uniqueness key: population runs skip authors whose exact name already
// exists rather than merging into the existing row.
type Candidate struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	University      string
	Department      string
	GraduationYear  int
	YearsExperience int

	// PhD* fields describe the (estimated) doctoral program.
	PhDUniversity     string
	PhDGraduationYear int
	PhDDepartment     string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Publications is populated by list queries; it is not written through
	// the candidate itself.
	Publications []Publication
}

// Publication is a persisted publication row owned by exactly one candidate.
type Publication struct {
	ID          uuid.UUID
	CandidateID uuid.UUID
	Title       string

	// Exactly one of Conference or Journal is set, matching VenueType.
	Conference string
	Journal    string

	Year      int
	Citations int
	URL       string

	// Abstract is truncated to a bounded length before insert.
	Abstract string

	DOI       string
	VenueType VenueType
	VenueRank VenueRank
	Source    SourceType
	CreatedAt time.Time
}

// Skill is a lookup-table entry linked to candidates via candidate_skills.
type Skill struct {
	ID       uuid.UUID
	Name     string
	Category string
}

// ResearchArea is a lookup-table entry linked via candidate_research_areas.
type ResearchArea struct {
	ID   uuid.UUID
	Name string
}

// Internship is a persisted internship entry for a candidate.
type Internship struct {
	ID          uuid.UUID
	CandidateID uuid.UUID
	Company     string
	Role        string
	Duration    string
	Year        int
	Description string
	CreatedAt   time.Time
}
