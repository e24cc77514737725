package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// OpenAlex polite pool (with email) allows higher rates.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// DefaultFallbackYearWindow is how far back the free-text fallback
	// search reaches when the institution filter finds nothing.
	DefaultFallbackYearWindow = 2

	// maxPerPage is the OpenAlex API per_page limit.
	maxPerPage = 200

	// doiPrefix is the URL prefix that OpenAlex uses for DOIs.
	doiPrefix = "https://doi.org/"

	// openAlexIDPrefix is the URL prefix for OpenAlex IDs.
	openAlexIDPrefix = "https://openalex.org/"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact email for the polite pool.
	// Providing an email grants access to higher rate limits.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Email string

	// Timeout is the request timeout.
	// Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 10 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 10.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	// Defaults to 100, capped at 200 per the OpenAlex API.
	MaxResults int

	// FallbackYearWindow is how many years back the free-text fallback
	// search reaches. Defaults to 2.
	FallbackYearWindow int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.FallbackYearWindow == 0 {
		c.FallbackYearWindow = DefaultFallbackYearWindow
	}
}

// Client implements the sources.Source interface for OpenAlex.
//
// Institution name to OpenAlex ID resolutions are memoized for the lifetime
// of the process, so repeated population runs against the same universities
// only pay the lookup once.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger

	mu             sync.Mutex
	institutionIDs map[string]string
}

// Ensure Client implements the Source interface.
var _ sources.Source = (*Client)(nil)

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "ScoutLab-RecruitingService/1.0 (mailto:" + cfg.Email + ")",
	})

	return &Client{
		config:         cfg,
		httpClient:     httpClient,
		logger:         logger.With().Str("source", "openalex").Logger(),
		institutionIDs: make(map[string]string),
	}
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config:         cfg,
		httpClient:     httpClient,
		logger:         logger.With().Str("source", "openalex").Logger(),
		institutionIDs: make(map[string]string),
	}
}

// SearchInstitution queries OpenAlex for works affiliated with the given
// institution. It tries a precise institution-ID filter first and falls back
// to a free-text search over a narrower year window when the filter finds
// nothing.
func (c *Client) SearchInstitution(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	strategies := []sources.Strategy{
		{
			Name: "institution-filter",
			Run: func(ctx context.Context) ([]*domain.Paper, error) {
				return c.searchByInstitutionID(ctx, q)
			},
		},
		{
			Name: "fulltext-fallback",
			Run: func(ctx context.Context) ([]*domain.Paper, error) {
				return c.searchByFullText(ctx, q)
			},
		},
	}

	return sources.FirstNonEmpty(ctx, c.logger, strategies)
}

// SearchAuthor queries OpenAlex for works by the given author display name.
func (c *Client) SearchAuthor(ctx context.Context, q sources.AuthorQuery) ([]*domain.Paper, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	query := url.Values{}
	query.Set("filter", "author.display_name.search:"+q.Name)
	query.Set("sort", "cited_by_count:desc")
	query.Set("per_page", strconv.Itoa(c.perPage(q.MaxResults)))
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	return c.fetchWorks(ctx, baseURL.String())
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return "OpenAlex"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// searchByInstitutionID resolves the institution name to an OpenAlex ID and
// filters works by that ID. Returns an empty slice when the institution
// itself cannot be found, so the caller can fall back to a looser strategy.
func (c *Client) searchByInstitutionID(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	institutionID, err := c.lookupInstitutionID(ctx, q.University)
	if err != nil {
		return nil, fmt.Errorf("resolving institution %q: %w", q.University, err)
	}
	if institutionID == "" {
		return []*domain.Paper{}, nil
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	filters := []string{"institutions.id:" + institutionID}
	if q.FromYear > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", q.FromYear))
	}
	if q.ToYear > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", q.ToYear))
	}
	if q.MinCitations > 0 {
		// OpenAlex only has a strict > operator; >N-1 keeps papers with
		// exactly MinCitations citations.
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", q.MinCitations-1))
	}

	query := url.Values{}
	query.Set("filter", strings.Join(filters, ","))
	query.Set("sort", "cited_by_count:desc")
	query.Set("per_page", strconv.Itoa(c.perPage(q.MaxResults)))
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	return c.fetchWorks(ctx, baseURL.String())
}

// searchByFullText searches works by the university name as free text.
// The window is intentionally narrower than the institution filter's: a
// free-text match is noisier, so only very recent works are worth keeping.
func (c *Client) searchByFullText(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	fromYear := time.Now().Year() - c.config.FallbackYearWindow
	filters := []string{fmt.Sprintf("from_publication_date:%d-01-01", fromYear)}
	if q.MinCitations > 0 {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", q.MinCitations-1))
	}

	query := url.Values{}
	query.Set("search", q.University)
	query.Set("filter", strings.Join(filters, ","))
	query.Set("sort", "cited_by_count:desc")
	query.Set("per_page", strconv.Itoa(c.perPage(q.MaxResults)))
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	return c.fetchWorks(ctx, baseURL.String())
}

// lookupInstitutionID resolves an institution display name to an OpenAlex ID.
// Successful resolutions are cached for the process lifetime. An empty
// return with a nil error means OpenAlex knows no such institution.
func (c *Client) lookupInstitutionID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if id, ok := c.institutionIDs[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/institutions"

	query := url.Values{}
	query.Set("search", name)
	query.Set("per_page", "1")
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	var instResp InstitutionsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&instResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(instResp.Results) == 0 {
		c.logger.Debug().Str("institution", name).Msg("no matching institution found")
		return "", nil
	}

	id := normalizeOpenAlexID(instResp.Results[0].ID)
	c.logger.Debug().
		Str("institution", name).
		Str("institution_id", id).
		Str("matched_name", instResp.Results[0].DisplayName).
		Msg("resolved institution")

	c.mu.Lock()
	c.institutionIDs[name] = id
	c.mu.Unlock()

	return id, nil
}

// fetchWorks executes a works query and converts the results to domain papers.
func (c *Client) fetchWorks(ctx context.Context, workURL string) ([]*domain.Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, workURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError("OpenAlex", resp.StatusCode, string(body), nil)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var worksResp WorksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&worksResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]*domain.Paper, 0, len(worksResp.Results))
	for i := range worksResp.Results {
		if paper := c.workToPaper(&worksResp.Results[i]); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// perPage clamps the requested result count to the API limit.
func (c *Client) perPage(maxResults int) int {
	if maxResults == 0 {
		maxResults = c.config.MaxResults
	}
	if maxResults > maxPerPage {
		maxResults = maxPerPage
	}
	return maxResults
}

// workToPaper converts an OpenAlex Work to a domain Paper.
func (c *Client) workToPaper(work *Work) *domain.Paper {
	if work == nil {
		return nil
	}

	// Prefer display_name as it is usually cleaner.
	title := work.DisplayName
	if title == "" {
		title = work.Title
	}
	if title == "" {
		title = domain.UntitledPlaceholder
	}

	doi := domain.NormalizeDOI(work.DOI)

	authors := make([]domain.PaperAuthor, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		author := domain.PaperAuthor{
			Name:       authorship.Author.DisplayName,
			ExternalID: normalizeOpenAlexID(authorship.Author.ID),
		}
		for _, inst := range authorship.Institutions {
			if inst.DisplayName != "" {
				author.Institutions = append(author.Institutions, inst.DisplayName)
			}
		}
		authors = append(authors, author)
	}

	var venue string
	if work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		venue = work.PrimaryLocation.Source.DisplayName
	}

	paperURL := ""
	switch {
	case doi != "":
		paperURL = doiPrefix + doi
	case work.PrimaryLocation != nil && work.PrimaryLocation.LandingPage != "":
		paperURL = work.PrimaryLocation.LandingPage
	default:
		paperURL = work.ID
	}

	concepts := make([]string, 0, len(work.Concepts))
	for _, concept := range work.Concepts {
		if concept.DisplayName != "" {
			concepts = append(concepts, concept.DisplayName)
		}
	}

	year := work.PublicationYear
	if year == 0 {
		year = time.Now().Year()
	}

	return &domain.Paper{
		SourceID:  normalizeOpenAlexID(work.ID),
		Title:     title,
		Authors:   authors,
		Year:      year,
		Citations: work.CitedByCount,
		Venue:     venue,
		DOI:       doi,
		URL:       paperURL,
		Abstract:  reconstructAbstract(work.AbstractInvertedIndex),
		Concepts:  concepts,
		Source:    domain.SourceTypeOpenAlex,
	}
}

// normalizeOpenAlexID extracts the short ID from full OpenAlex URLs.
func normalizeOpenAlexID(id string) string {
	if id == "" {
		return ""
	}
	id = strings.TrimPrefix(id, openAlexIDPrefix)
	return strings.TrimSpace(id)
}

// reconstructAbstract reconstructs the abstract text from OpenAlex's
// inverted index format, which maps words to their positions in the text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}

	// Guard against malicious payloads with excessive position entries.
	const maxAbstractWords = 100_000
	totalPairs := 0
	for _, positions := range invertedIndex {
		totalPairs += len(positions)
	}
	if totalPairs > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, totalPairs)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		words = append(words, pair.word)
	}
	return strings.Join(words, " ")
}
