package domain

import (
	"regexp"
	"strings"
)

// UntitledPlaceholder is substituted for papers whose provider response
// carried no title. A normalized paper never has an empty title.
const UntitledPlaceholder = "Untitled"

// PaperAuthor is one author entry on a normalized paper, in publication order.
type PaperAuthor struct {
	// Name is the author's display name as reported by the source.
	Name string `json:"name"`

	// ExternalID is the source-specific author identifier, if any
	// (OpenAlex author URL, Semantic Scholar author ID).
	ExternalID string `json:"id,omitempty"`

	// Institutions is the set of institution names attributed to the
	// author on this paper. May be empty.
	Institutions []string `json:"institutions,omitempty"`
}

// Paper is a publication record normalized from a provider-specific shape
// into the common schema. Papers are immutable once produced by a source
// fetcher and are discarded after a population run persists its results.
type Paper struct {
	// SourceID is the provider's identifier for this record
	// (OpenAlex work URL, Semantic Scholar paper ID, CrossRef DOI).
	SourceID string `json:"id"`

	// Title is never empty; missing titles default to UntitledPlaceholder.
	Title string `json:"title"`

	Authors []PaperAuthor `json:"authors"`

	// Year is the publication year. Fetchers default a missing year to
	// the current year so aggregation bounds stay well-formed.
	Year int `json:"year"`

	// Citations is the citation count, never negative.
	Citations int `json:"citations"`

	Venue    string   `json:"venue"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
	Abstract string   `json:"abstract"`
	Concepts []string `json:"concepts,omitempty"`

	// Source identifies which provider produced this record.
	Source SourceType `json:"source"`
}

// SearchText returns the case-folded text used for keyword classification:
// title, abstract and venue joined by spaces.
func (p *Paper) SearchText() string {
	return strings.ToLower(p.Title + " " + p.Abstract + " " + p.Venue)
}

var titleKeyStrip = regexp.MustCompile(`[^\w\s]`)

// DedupeKey derives the deduplication key for a paper: the DOI when present,
// otherwise the normalized title (lowercased, punctuation stripped, trimmed).
// Returns "" when neither yields a usable key; callers must then treat the
// record as unique.
func (p *Paper) DedupeKey() string {
	if doi := NormalizeDOI(p.DOI); doi != "" {
		return doi
	}
	title := titleKeyStrip.ReplaceAllString(strings.ToLower(p.Title), "")
	return strings.TrimSpace(title)
}

// NormalizeDOI strips URL prefixes from DOIs and returns the lowercase form,
// so the same logical publication keys identically across sources.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}
