package pipeline

import (
	"strings"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
)

// topTierVenues is the fixed list of prestigious venue abbreviations.
// Matching is a plain substring test against the raw venue string, so the
// abbreviations keep their canonical capitalization.
var topTierVenues = []string{
	"NeurIPS",
	"ICML",
	"ICLR",
	"ASPLOS",
	"OSDI",
	"SOSP",
	"SIGCOMM",
	"STOC",
	"FOCS",
	"CRYPTO",
	"USENIX Security",
	"CCS",
	"ICRA",
	"RSS",
	"IROS",
	"Nature",
	"Science",
}

// ClassifyVenueRank returns top-tier when the venue string contains any of
// the known prestigious venue abbreviations, other when it doesn't.
// VenueRankMidTier is never produced; no current rule maps to it.
func ClassifyVenueRank(venue string) domain.VenueRank {
	for _, top := range topTierVenues {
		if strings.Contains(venue, top) {
			return domain.VenueRankTopTier
		}
	}
	return domain.VenueRankOther
}

// ClassifyVenueType treats a venue as a journal when its name contains
// "Journal" and as a conference otherwise.
func ClassifyVenueType(venue string) domain.VenueType {
	if strings.Contains(venue, "Journal") {
		return domain.VenueTypeJournal
	}
	return domain.VenueTypeConference
}
