package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/pipeline"
)

// Request body and pagination constants.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	maxUniversities    = 20
	recentCandidates   = 10
)

// populateRequest is the JSON request body for starting a population run.
// All fields are optional; defaults mirror what the dashboard sends.
type populateRequest struct {
	Universities    []string `json:"universities,omitempty"`
	MinCitations    *int     `json:"minCitations,omitempty"`
	MaxCandidates   *int     `json:"maxCandidates,omitempty"`
	GraduationYears []int    `json:"graduationYears,omitempty"`
	TestMode        bool     `json:"testMode,omitempty"`
}

// scrapeRequest is the JSON request body for an author publication scrape.
// University and email are accepted for dashboard compatibility but the
// search is keyed on the author name alone.
type scrapeRequest struct {
	AuthorName string `json:"authorName"`
	University string `json:"university,omitempty"`
	Email      string `json:"email,omitempty"`
}

// populateStatusResponse is the response body for GET /populate/status.
type populateStatusResponse struct {
	Statistics             populateStatistics            `json:"statistics"`
	RecentCandidates       []candidateResponse           `json:"recentCandidates"`
	UniversityDistribution []universityDistributionEntry `json:"universityDistribution"`
}

type populateStatistics struct {
	TotalCandidates       int64 `json:"totalCandidates"`
	TotalPublications     int64 `json:"totalPublications"`
	TotalSkillAssignments int64 `json:"totalSkillAssignments"`
}

type universityDistributionEntry struct {
	University string `json:"university"`
	Count      int64  `json:"count"`
}

// populateCandidates handles POST /api/v1/populate/candidates.
// It runs the population pipeline synchronously and always answers 200 with
// a structured outcome; fatal failures are reported in the body rather than
// the status code so the dashboard can render partial results.
func (s *Server) populateCandidates(w http.ResponseWriter, r *http.Request) {
	var req populateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	run := pipeline.PopulateRequest{
		Universities:    req.Universities,
		MinCitations:    5,
		MaxCandidates:   20,
		GraduationYears: req.GraduationYears,
		TestMode:        req.TestMode,
	}
	if len(run.Universities) == 0 {
		run.Universities = []string{"Stanford University", "MIT"}
	}
	if len(run.Universities) > maxUniversities {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("universities must have at most %d entries", maxUniversities))
		return
	}
	for _, u := range run.Universities {
		if strings.TrimSpace(u) == "" {
			writeError(w, http.StatusBadRequest, "universities must not contain blank entries")
			return
		}
	}
	if req.MinCitations != nil {
		if *req.MinCitations < 0 {
			writeError(w, http.StatusBadRequest, "minCitations must not be negative")
			return
		}
		run.MinCitations = *req.MinCitations
	}
	if req.MaxCandidates != nil {
		if *req.MaxCandidates < 1 {
			writeError(w, http.StatusBadRequest, "maxCandidates must be positive")
			return
		}
		run.MaxCandidates = *req.MaxCandidates
	}
	if len(run.GraduationYears) == 0 {
		run.GraduationYears = []int{2024, 2025, 2026}
	}

	outcome := s.populator.Run(r.Context(), run)
	writeJSON(w, http.StatusOK, outcome)
}

// populateStatus handles GET /api/v1/populate/status.
func (s *Server) populateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalCandidates, err := s.candidates.Count(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	totalPublications, err := s.publications.Count(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	totalSkillLinks, err := s.skills.CountSkillLinks(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	recent, err := s.candidates.Recent(ctx, recentCandidates)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	distribution, err := s.candidates.UniversityDistribution(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := populateStatusResponse{
		Statistics: populateStatistics{
			TotalCandidates:       totalCandidates,
			TotalPublications:     totalPublications,
			TotalSkillAssignments: totalSkillLinks,
		},
		RecentCandidates:       make([]candidateResponse, len(recent)),
		UniversityDistribution: make([]universityDistributionEntry, len(distribution)),
	}
	for i, c := range recent {
		resp.RecentCandidates[i] = domainCandidateToResponse(c)
	}
	for i, d := range distribution {
		resp.UniversityDistribution[i] = universityDistributionEntry{
			University: d.University,
			Count:      d.Count,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// scrapePublications handles POST /api/v1/publications/scrape.
func (s *Server) scrapePublications(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.AuthorName = strings.TrimSpace(req.AuthorName)
	if req.AuthorName == "" {
		writeError(w, http.StatusBadRequest, "authorName is required")
		return
	}

	result, err := s.scraper.ScrapeAuthor(r.Context(), req.AuthorName, 0)
	if err != nil {
		s.logger.Error().Err(err).Str("author", req.AuthorName).Msg("publication scrape failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeBody reads and unmarshals a size-limited JSON request body, writing
// a 400 error response on failure. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if
// invalid. The parse error details are not echoed back.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}
