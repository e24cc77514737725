// Package crossref provides a client for the CrossRef REST API.
//
// CrossRef is the DOI registration agency for scholarly publishing; its
// works endpoint exposes bibliographic metadata for registered publications.
// This package implements the sources.Source interface for author-scoped
// publication searches.
//
// API Documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// WorksResponse represents the top-level response from the works endpoint.
type WorksResponse struct {
	Status  string  `json:"status"`
	Message Message `json:"message"`
}

// Message contains the works result set.
type Message struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work represents a registered work in the CrossRef API.
type Work struct {
	// DOI is the work's Digital Object Identifier.
	DOI string `json:"DOI"`

	// Title holds the work's title(s); CrossRef returns an array.
	Title []string `json:"title"`

	// Author lists the work's contributors.
	Author []Contributor `json:"author"`

	// ContainerTitle holds the venue name(s), e.g. the journal title.
	ContainerTitle []string `json:"container-title"`

	// Issued is the earliest known publication date.
	Issued DateParts `json:"issued"`

	// IsReferencedByCount is the citation count CrossRef knows about.
	IsReferencedByCount int `json:"is-referenced-by-count"`

	// URL is the work's primary resource URL.
	URL string `json:"URL"`

	// Abstract is the work's abstract, often as JATS XML.
	Abstract string `json:"abstract"`

	// Subject lists subject classifications for the work.
	Subject []string `json:"subject"`

	// Type is the work type (journal-article, proceedings-article, ...).
	Type string `json:"type"`
}

// Contributor represents an author or other contributor.
type Contributor struct {
	Given       string        `json:"given"`
	Family      string        `json:"family"`
	ORCID       string        `json:"ORCID"`
	Affiliation []Affiliation `json:"affiliation"`
}

// Affiliation represents a contributor's institutional affiliation.
type Affiliation struct {
	Name string `json:"name"`
}

// DateParts represents CrossRef's date encoding: an array of
// [year, month, day] arrays, any suffix of which may be missing.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component of the date, or 0 if unknown.
func (d DateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}
