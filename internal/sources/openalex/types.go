// Package openalex provides a client for the OpenAlex API.
//
// OpenAlex is a free, open catalog of scholarly works, authors, venues,
// institutions, and concepts. This package implements the sources.Source
// interface for institution- and author-scoped publication searches.
//
// API Documentation: https://docs.openalex.org/
package openalex

// WorksResponse represents the top-level response from the works endpoint.
type WorksResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// InstitutionsResponse represents the response from the institutions endpoint.
type InstitutionsResponse struct {
	Meta    Meta               `json:"meta"`
	Results []InstitutionEntry `json:"results"`
}

// Meta contains metadata about the results including pagination info.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// InstitutionEntry represents an institution record.
type InstitutionEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`
	WorksCount  int    `json:"works_count"`
}

// Work represents an academic work (publication) in OpenAlex.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	CitedByCount    int          `json:"cited_by_count"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	Concepts        []Concept    `json:"concepts"`

	// Abstract is stored as an inverted index - we reconstruct it.
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship represents an author's contribution to a work.
type Authorship struct {
	AuthorPosition string        `json:"author_position"`
	Author         AuthorInfo    `json:"author"`
	Institutions   []Institution `json:"institutions"`
}

// AuthorInfo contains basic author information.
type AuthorInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Orcid       string `json:"orcid"`
}

// Institution represents an academic institution affiliation.
type Institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Concept represents a research concept tagged on a work.
type Concept struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// Location represents where a work is available.
type Location struct {
	Source      *VenueSource `json:"source"`
	LandingPage string       `json:"landing_page_url"`
	PDFURL      string       `json:"pdf_url"`
}

// VenueSource represents a publication venue (journal, conference, repository).
type VenueSource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}
