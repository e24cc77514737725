package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/repository"
)

// candidateResponse is the JSON shape of a candidate.
type candidateResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	University      string `json:"university"`
	Department      string `json:"department,omitempty"`
	GraduationYear  int    `json:"graduationYear,omitempty"`
	YearsExperience int    `json:"yearsExperience,omitempty"`

	PhDUniversity     string `json:"phdUniversity,omitempty"`
	PhDGraduationYear int    `json:"phdGraduationYear,omitempty"`
	PhDDepartment     string `json:"phdDepartment,omitempty"`

	Publications []publicationResponse `json:"publications,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// publicationResponse is the JSON shape of a publication.
type publicationResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Conference string    `json:"conference,omitempty"`
	Journal    string    `json:"journal,omitempty"`
	Year       int       `json:"year"`
	Citations  int       `json:"citations"`
	URL        string    `json:"url,omitempty"`
	Abstract   string    `json:"abstract,omitempty"`
	DOI        string    `json:"doi,omitempty"`
	VenueType  string    `json:"venueType"`
	VenueRank  string    `json:"venueRank"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

// listCandidatesResponse is the paginated list envelope.
type listCandidatesResponse struct {
	Candidates []candidateResponse `json:"candidates"`
	TotalCount int64               `json:"totalCount"`
}

// createCandidateRequest is the JSON request body for creating a candidate
// manually. Only the name and university are mandatory; everything else
// mirrors what the population pipeline fills in on its own.
type createCandidateRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=200"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"omitempty,max=50"`
	University      string `json:"university" validate:"required,min=2,max=200"`
	Department      string `json:"department" validate:"omitempty,max=200"`
	GraduationYear  int    `json:"graduationYear" validate:"omitempty,min=1950,max=2100"`
	YearsExperience int    `json:"yearsExperience" validate:"omitempty,min=0,max=80"`

	PhDUniversity     string `json:"phdUniversity" validate:"omitempty,max=200"`
	PhDGraduationYear int    `json:"phdGraduationYear" validate:"omitempty,min=1950,max=2100"`
	PhDDepartment     string `json:"phdDepartment" validate:"omitempty,max=200"`
}

// listCandidates handles GET /api/v1/candidates.
func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	filter := repository.CandidateFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}

	if university := strings.TrimSpace(r.URL.Query().Get("university")); university != "" {
		filter.University = &university
	}
	if yearParam := r.URL.Query().Get("graduationYear"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "graduationYear must be an integer")
			return
		}
		filter.GraduationYear = &year
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		if offset, err := strconv.Atoi(offsetParam); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}
	if err := filter.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	candidates, totalCount, err := s.candidates.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]candidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = domainCandidateToResponse(c)
	}

	writeJSON(w, http.StatusOK, listCandidatesResponse{
		Candidates: responses,
		TotalCount: totalCount,
	})
}

// getCandidate handles GET /api/v1/candidates/{candidateID}.
func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "candidateID"), "candidate_id")
	if !ok {
		return
	}

	candidate, err := s.candidates.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainCandidateToResponse(candidate))
}

// createCandidate handles POST /api/v1/candidates.
func (s *Server) createCandidate(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.University = strings.TrimSpace(req.University)
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	candidate := &domain.Candidate{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		University:        req.University,
		Department:        req.Department,
		GraduationYear:    req.GraduationYear,
		YearsExperience:   req.YearsExperience,
		PhDUniversity:     req.PhDUniversity,
		PhDGraduationYear: req.PhDGraduationYear,
		PhDDepartment:     req.PhDDepartment,
	}

	created, err := s.candidates.Create(r.Context(), candidate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainCandidateToResponse(created))
}

// writeValidationError renders validator failures as a 400 naming the first
// offending field.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		writeError(w, http.StatusBadRequest, "invalid field "+fe.Field()+": failed on "+fe.Tag())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request payload")
}

// domainCandidateToResponse converts a domain candidate to its JSON shape.
func domainCandidateToResponse(c *domain.Candidate) candidateResponse {
	resp := candidateResponse{
		ID:                c.ID.String(),
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		University:        c.University,
		Department:        c.Department,
		GraduationYear:    c.GraduationYear,
		YearsExperience:   c.YearsExperience,
		PhDUniversity:     c.PhDUniversity,
		PhDGraduationYear: c.PhDGraduationYear,
		PhDDepartment:     c.PhDDepartment,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if len(c.Publications) > 0 {
		resp.Publications = make([]publicationResponse, len(c.Publications))
		for i, p := range c.Publications {
			resp.Publications[i] = domainPublicationToResponse(&p)
		}
	}
	return resp
}

// domainPublicationToResponse converts a domain publication to its JSON shape.
func domainPublicationToResponse(p *domain.Publication) publicationResponse {
	return publicationResponse{
		ID:         p.ID.String(),
		Title:      p.Title,
		Conference: p.Conference,
		Journal:    p.Journal,
		Year:       p.Year,
		Citations:  p.Citations,
		URL:        p.URL,
		Abstract:   p.Abstract,
		DOI:        p.DOI,
		VenueType:  string(p.VenueType),
		VenueRank:  string(p.VenueRank),
		Source:     string(p.Source),
		CreatedAt:  p.CreatedAt,
	}
}
