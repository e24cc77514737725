package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/observability"
	"github.com/scoutlab/phd-recruiting-service/internal/pipeline"
	"github.com/scoutlab/phd-recruiting-service/internal/repository"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockCandidateRepo implements repository.CandidateRepository for HTTP handler tests.
type mockCandidateRepo struct {
	createFn       func(ctx context.Context, candidate *domain.Candidate) (*domain.Candidate, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
	existsByNameFn func(ctx context.Context, name string) (bool, error)
	listFn         func(ctx context.Context, filter repository.CandidateFilter) ([]*domain.Candidate, int64, error)
	countFn        func(ctx context.Context) (int64, error)
	recentFn       func(ctx context.Context, limit int) ([]*domain.Candidate, error)
	distributionFn func(ctx context.Context) ([]repository.UniversityCount, error)
}

func (m *mockCandidateRepo) Create(ctx context.Context, candidate *domain.Candidate) (*domain.Candidate, error) {
	if m.createFn != nil {
		return m.createFn(ctx, candidate)
	}
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	return candidate, nil
}

func (m *mockCandidateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("candidate", id.String())
}

func (m *mockCandidateRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	if m.existsByNameFn != nil {
		return m.existsByNameFn(ctx, name)
	}
	return false, nil
}

func (m *mockCandidateRepo) List(ctx context.Context, filter repository.CandidateFilter) ([]*domain.Candidate, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockCandidateRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockCandidateRepo) Recent(ctx context.Context, limit int) ([]*domain.Candidate, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockCandidateRepo) UniversityDistribution(ctx context.Context) ([]repository.UniversityCount, error) {
	if m.distributionFn != nil {
		return m.distributionFn(ctx)
	}
	return nil, nil
}

// mockPublicationRepo implements repository.PublicationRepository for HTTP handler tests.
type mockPublicationRepo struct {
	countFn func(ctx context.Context) (int64, error)
}

func (m *mockPublicationRepo) CreateBatch(_ context.Context, publications []domain.Publication, _ int) (int, error) {
	return len(publications), nil
}

func (m *mockPublicationRepo) ListByCandidate(_ context.Context, _ uuid.UUID) ([]domain.Publication, error) {
	return nil, nil
}

func (m *mockPublicationRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// mockSkillRepo implements repository.SkillRepository for HTTP handler tests.
type mockSkillRepo struct {
	countLinksFn func(ctx context.Context) (int64, error)
}

func (m *mockSkillRepo) UpsertSkill(_ context.Context, _, _ string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (m *mockSkillRepo) LinkSkill(_ context.Context, _, _ uuid.UUID, _ domain.ProficiencyLevel) error {
	return nil
}

func (m *mockSkillRepo) UpsertResearchArea(_ context.Context, _ string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (m *mockSkillRepo) LinkResearchArea(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *mockSkillRepo) CountSkillLinks(ctx context.Context) (int64, error) {
	if m.countLinksFn != nil {
		return m.countLinksFn(ctx)
	}
	return 0, nil
}

// stubSource implements sources.Source for HTTP handler tests.
type stubSource struct {
	sourceType    domain.SourceType
	institutionFn func(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error)
	authorFn      func(ctx context.Context, q sources.AuthorQuery) ([]*domain.Paper, error)
}

func (s *stubSource) SearchInstitution(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	if s.institutionFn != nil {
		return s.institutionFn(ctx, q)
	}
	return nil, nil
}

func (s *stubSource) SearchAuthor(ctx context.Context, q sources.AuthorQuery) ([]*domain.Paper, error) {
	if s.authorFn != nil {
		return s.authorFn(ctx, q)
	}
	return nil, nil
}

func (s *stubSource) SourceType() domain.SourceType { return s.sourceType }
func (s *stubSource) Name() string                  { return string(s.sourceType) }
func (s *stubSource) IsEnabled() bool               { return true }

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type testServerDeps struct {
	candidates   *mockCandidateRepo
	publications *mockPublicationRepo
	skills       *mockSkillRepo
	registry     *sources.Registry
}

// newTestHTTPServer creates a Server configured for testing with mocked
// dependencies and a real pipeline wired to the stub registry.
func newTestHTTPServer(deps testServerDeps) *Server {
	if deps.candidates == nil {
		deps.candidates = &mockCandidateRepo{}
	}
	if deps.publications == nil {
		deps.publications = &mockPublicationRepo{}
	}
	if deps.skills == nil {
		deps.skills = &mockSkillRepo{}
	}
	if deps.registry == nil {
		deps.registry = sources.NewRegistry()
	}

	cfg := config.PipelineConfig{
		MinTotalCitations:     1,
		MaxTotalCitations:     10000,
		RecentYears:           5,
		MinAuthorNameLen:      3,
		CandidateCap:          20,
		PerUniversityLimit:    5,
		TopPapersPerCandidate: 5,
		AbstractMaxLen:        500,
		InsertBatchSize:       500,
		MaxUniversitiesPerRun: 2,
	}

	logger := zerolog.Nop()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	populator := pipeline.NewPopulator(cfg, deps.registry, deps.candidates, deps.publications, deps.skills, metrics, logger)
	scraper := pipeline.NewScraper(deps.registry, metrics, logger)

	s := &Server{
		populator:    populator,
		scraper:      scraper,
		candidates:   deps.candidates,
		publications: deps.publications,
		skills:       deps.skills,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
	}
	s.router = s.buildRouter()
	return s
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests: populateCandidates
// ---------------------------------------------------------------------------

func TestPopulateCandidates_TestMode(t *testing.T) {
	candidates := &mockCandidateRepo{}
	srv := newTestHTTPServer(testServerDeps{candidates: candidates})

	rr := serveHTTP(srv, postJSON("/api/v1/populate/candidates", `{"testMode":true}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var outcome pipeline.PopulateOutcome
	decodeJSON(t, rr, &outcome)

	if !outcome.Success {
		t.Errorf("expected success, got %+v", outcome)
	}
	if outcome.Message != "Test mode: created 2 test candidates" {
		t.Errorf("unexpected message: %q", outcome.Message)
	}
}

func TestPopulateCandidates_Defaults(t *testing.T) {
	var searched []string
	var minCitations int
	source := &stubSource{
		sourceType: domain.SourceTypeOpenAlex,
		institutionFn: func(_ context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
			searched = append(searched, q.University)
			minCitations = q.MinCitations
			return nil, nil
		},
	}
	registry := sources.NewRegistry()
	registry.Register(source)

	srv := newTestHTTPServer(testServerDeps{registry: registry})

	rr := serveHTTP(srv, postJSON("/api/v1/populate/candidates", `{}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var outcome pipeline.PopulateOutcome
	decodeJSON(t, rr, &outcome)
	if !outcome.Success {
		t.Errorf("expected success, got %+v", outcome)
	}

	if len(searched) != 2 || searched[0] != "Stanford University" || searched[1] != "MIT" {
		t.Errorf("expected default universities [Stanford University MIT], got %v", searched)
	}
	if minCitations != 5 {
		t.Errorf("expected default minCitations 5, got %d", minCitations)
	}
}

func TestPopulateCandidates_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{"universities":`},
		{name: "blank university entry", body: `{"universities":["MIT",""]}`},
		{name: "negative minCitations", body: `{"minCitations":-1}`},
		{name: "zero maxCandidates", body: `{"maxCandidates":0}`},
		{name: "too many universities", body: `{"universities":[` + strings.Repeat(`"u",`, 20) + `"u"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestHTTPServer(testServerDeps{})
			rr := serveHTTP(srv, postJSON("/api/v1/populate/candidates", tt.body))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests: populateStatus
// ---------------------------------------------------------------------------

func TestPopulateStatus(t *testing.T) {
	recent := &domain.Candidate{
		ID:         uuid.New(),
		Name:       "Dr. Alice Chen",
		University: "Stanford University",
	}
	var recentLimit int

	candidates := &mockCandidateRepo{
		countFn: func(_ context.Context) (int64, error) { return 12, nil },
		recentFn: func(_ context.Context, limit int) ([]*domain.Candidate, error) {
			recentLimit = limit
			return []*domain.Candidate{recent}, nil
		},
		distributionFn: func(_ context.Context) ([]repository.UniversityCount, error) {
			return []repository.UniversityCount{
				{University: "Stanford University", Count: 8},
				{University: "MIT", Count: 4},
			}, nil
		},
	}
	publications := &mockPublicationRepo{
		countFn: func(_ context.Context) (int64, error) { return 57, nil },
	}
	skills := &mockSkillRepo{
		countLinksFn: func(_ context.Context) (int64, error) { return 31, nil },
	}

	srv := newTestHTTPServer(testServerDeps{candidates: candidates, publications: publications, skills: skills})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/populate/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp populateStatusResponse
	decodeJSON(t, rr, &resp)

	if resp.Statistics.TotalCandidates != 12 {
		t.Errorf("expected 12 candidates, got %d", resp.Statistics.TotalCandidates)
	}
	if resp.Statistics.TotalPublications != 57 {
		t.Errorf("expected 57 publications, got %d", resp.Statistics.TotalPublications)
	}
	if resp.Statistics.TotalSkillAssignments != 31 {
		t.Errorf("expected 31 skill assignments, got %d", resp.Statistics.TotalSkillAssignments)
	}
	if recentLimit != recentCandidates {
		t.Errorf("expected recent limit %d, got %d", recentCandidates, recentLimit)
	}
	if len(resp.RecentCandidates) != 1 || resp.RecentCandidates[0].Name != "Dr. Alice Chen" {
		t.Errorf("unexpected recent candidates: %+v", resp.RecentCandidates)
	}
	if len(resp.UniversityDistribution) != 2 || resp.UniversityDistribution[0].Count != 8 {
		t.Errorf("unexpected university distribution: %+v", resp.UniversityDistribution)
	}
}

// ---------------------------------------------------------------------------
// Tests: scrapePublications
// ---------------------------------------------------------------------------

func TestScrapePublications_Success(t *testing.T) {
	source := &stubSource{
		sourceType: domain.SourceTypeOpenAlex,
		authorFn: func(_ context.Context, q sources.AuthorQuery) ([]*domain.Paper, error) {
			return []*domain.Paper{
				{
					SourceID:  "W1",
					Title:     "Deep Learning for Protein Folding",
					Year:      2024,
					Citations: 40,
					Venue:     "NeurIPS",
					Source:    domain.SourceTypeOpenAlex,
				},
			}, nil
		},
	}
	registry := sources.NewRegistry()
	registry.Register(source)

	srv := newTestHTTPServer(testServerDeps{registry: registry})

	rr := serveHTTP(srv, postJSON("/api/v1/publications/scrape", `{"authorName":"Jane Smith"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result pipeline.ScrapeResult
	decodeJSON(t, rr, &result)

	if result.TotalFound != 1 {
		t.Errorf("expected 1 publication, got %d", result.TotalFound)
	}
	if len(result.Publications) != 1 || result.Publications[0].Title != "Deep Learning for Protein Folding" {
		t.Errorf("unexpected publications: %+v", result.Publications)
	}
	if len(result.ExtractedSkills) == 0 {
		t.Error("expected skills extracted from the abstract text")
	}
}

func TestScrapePublications_MissingAuthorName(t *testing.T) {
	srv := newTestHTTPServer(testServerDeps{})

	rr := serveHTTP(srv, postJSON("/api/v1/publications/scrape", `{"authorName":"   "}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "authorName is required" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

func TestScrapePublications_NoSourcesEnabled(t *testing.T) {
	srv := newTestHTTPServer(testServerDeps{registry: sources.NewRegistry()})

	rr := serveHTTP(srv, postJSON("/api/v1/publications/scrape", `{"authorName":"Jane Smith"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if !strings.Contains(resp["error"], "no publication sources are enabled") {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

// ---------------------------------------------------------------------------
// Tests: candidates
// ---------------------------------------------------------------------------

func TestListCandidates(t *testing.T) {
	var captured repository.CandidateFilter
	candidates := &mockCandidateRepo{
		listFn: func(_ context.Context, filter repository.CandidateFilter) ([]*domain.Candidate, int64, error) {
			captured = filter
			return []*domain.Candidate{
				{ID: uuid.New(), Name: "Dr. Alice Chen", University: "MIT"},
			}, 1, nil
		},
	}
	srv := newTestHTTPServer(testServerDeps{candidates: candidates})

	path := "/api/v1/candidates?university=MIT&graduationYear=2025&search=chen&limit=25&offset=50"
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp listCandidatesResponse
	decodeJSON(t, rr, &resp)
	if resp.TotalCount != 1 || len(resp.Candidates) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}

	if captured.University == nil || *captured.University != "MIT" {
		t.Errorf("expected university filter MIT, got %v", captured.University)
	}
	if captured.GraduationYear == nil || *captured.GraduationYear != 2025 {
		t.Errorf("expected graduation year filter 2025, got %v", captured.GraduationYear)
	}
	if captured.Search != "chen" {
		t.Errorf("expected search filter chen, got %q", captured.Search)
	}
	if captured.Limit != 25 || captured.Offset != 50 {
		t.Errorf("expected limit 25 offset 50, got %d/%d", captured.Limit, captured.Offset)
	}
}

func TestListCandidates_InvalidGraduationYear(t *testing.T) {
	srv := newTestHTTPServer(testServerDeps{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/candidates?graduationYear=soon", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetCandidate(t *testing.T) {
	candidate := &domain.Candidate{
		ID:         uuid.New(),
		Name:       "Dr. Alice Chen",
		University: "Stanford University",
		Publications: []domain.Publication{
			{ID: uuid.New(), Title: "A Paper", VenueType: domain.VenueTypeConference},
		},
	}

	t.Run("returns candidate when found", func(t *testing.T) {
		candidates := &mockCandidateRepo{
			getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Candidate, error) {
				if id != candidate.ID {
					return nil, domain.NewNotFoundError("candidate", id.String())
				}
				return candidate, nil
			},
		}
		srv := newTestHTTPServer(testServerDeps{candidates: candidates})

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/candidates/"+candidate.ID.String(), nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp candidateResponse
		decodeJSON(t, rr, &resp)
		if resp.ID != candidate.ID.String() || resp.Name != candidate.Name {
			t.Errorf("unexpected candidate: %+v", resp)
		}
		if len(resp.Publications) != 1 {
			t.Errorf("expected 1 publication, got %d", len(resp.Publications))
		}
	})

	t.Run("returns 400 for malformed UUID", func(t *testing.T) {
		srv := newTestHTTPServer(testServerDeps{})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/candidates/not-a-uuid", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		srv := newTestHTTPServer(testServerDeps{})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/candidates/"+uuid.NewString(), nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestCreateCandidate(t *testing.T) {
	t.Run("creates candidate", func(t *testing.T) {
		var created *domain.Candidate
		candidates := &mockCandidateRepo{
			createFn: func(_ context.Context, candidate *domain.Candidate) (*domain.Candidate, error) {
				candidate.ID = uuid.New()
				created = candidate
				return candidate, nil
			},
		}
		srv := newTestHTTPServer(testServerDeps{candidates: candidates})

		body := `{"name":"  Dr. Alice Chen  ","university":"Stanford University","email":"alice@stanford.edu","graduationYear":2025}`
		rr := serveHTTP(srv, postJSON("/api/v1/candidates", body))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		if created == nil {
			t.Fatal("expected createFn to be called")
		}
		if created.Name != "Dr. Alice Chen" {
			t.Errorf("expected trimmed name, got %q", created.Name)
		}

		var resp candidateResponse
		decodeJSON(t, rr, &resp)
		if resp.Name != "Dr. Alice Chen" || resp.GraduationYear != 2025 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		srv := newTestHTTPServer(testServerDeps{})

		rr := serveHTTP(srv, postJSON("/api/v1/candidates", `{"name":"Al","university":"MIT"}`))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]string
		decodeJSON(t, rr, &resp)
		if !strings.Contains(resp["error"], "Name") {
			t.Errorf("expected error naming the field, got %q", resp["error"])
		}
	})

	t.Run("returns 409 for duplicate name", func(t *testing.T) {
		candidates := &mockCandidateRepo{
			createFn: func(_ context.Context, candidate *domain.Candidate) (*domain.Candidate, error) {
				return nil, domain.NewAlreadyExistsError("candidate", candidate.Name)
			},
		}
		srv := newTestHTTPServer(testServerDeps{candidates: candidates})

		body := `{"name":"Dr. Alice Chen","university":"Stanford University"}`
		rr := serveHTTP(srv, postJSON("/api/v1/candidates", body))
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}
