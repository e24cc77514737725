package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit. Authenticated requests get
	// 1 req/sec per key; the client is useless without a key anyway.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of results per search.
	DefaultMaxResults = 50

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields to request from the API.
	paperFields = "paperId,externalIds,url,title,abstract,year,venue,journal,authors,citationCount,fieldsOfStudy"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the API key for authenticated requests. The Graph API
	// rejects unauthenticated search traffic often enough that the client
	// reports itself disabled without a key.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int

	// Enabled indicates whether this source is enabled.
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
}

// Client implements the sources.Source interface for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger
}

// Compile-time check that Client implements sources.Source.
var _ sources.Source = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("source", "semantic_scholar").Logger(),
	}
}

// NewWithHTTPClient creates a new client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("source", "semantic_scholar").Logger(),
	}
}

// SearchInstitution queries the paper search endpoint with the university
// name as the query, bounded by year and minimum citation count.
func (c *Client) SearchInstitution(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	searchURL, err := c.buildInstitutionSearchURL(q)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var searchResp SearchResponse
	if err := c.get(ctx, searchURL, &searchResp); err != nil {
		return nil, err
	}

	return c.convertToPapers(searchResp.Data), nil
}

// SearchAuthor resolves the author name to a Semantic Scholar author ID and
// fetches that author's papers. Only the best-matching author is consulted;
// homonym disambiguation is out of the client's hands.
func (c *Client) SearchAuthor(ctx context.Context, q sources.AuthorQuery) ([]*domain.Paper, error) {
	authorID, err := c.lookupAuthorID(ctx, q.Name)
	if err != nil {
		return nil, err
	}
	if authorID == "" {
		return []*domain.Paper{}, nil
	}

	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	papersURL := base.JoinPath("author", authorID, "papers")

	query := papersURL.Query()
	query.Set("fields", paperFields)
	query.Set("limit", strconv.Itoa(c.limit(q.MaxResults)))
	papersURL.RawQuery = query.Encode()

	var papersResp AuthorPapersResponse
	if err := c.get(ctx, papersURL.String(), &papersResp); err != nil {
		return nil, err
	}

	return c.convertToPapers(papersResp.Data), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled. A client without an API
// key reports itself disabled so the pipeline skips it instead of burning
// requests that will be rejected.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// lookupAuthorID resolves an author display name to the best-matching
// Semantic Scholar author ID. Returns empty with a nil error when no
// author matches.
func (c *Client) lookupAuthorID(ctx context.Context, name string) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	searchURL := base.JoinPath("author", "search")

	query := searchURL.Query()
	query.Set("query", name)
	query.Set("fields", "authorId,name,paperCount")
	query.Set("limit", "1")
	searchURL.RawQuery = query.Encode()

	var authorResp AuthorSearchResponse
	if err := c.get(ctx, searchURL.String(), &authorResp); err != nil {
		return "", err
	}

	if len(authorResp.Data) == 0 {
		c.logger.Debug().Str("author", name).Msg("no matching author found")
		return "", nil
	}

	return authorResp.Data[0].AuthorID, nil
}

// buildInstitutionSearchURL constructs the paper search URL.
func (c *Client) buildInstitutionSearchURL(q sources.InstitutionQuery) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	searchURL := base.JoinPath("paper", "search")

	query := searchURL.Query()
	query.Set("query", q.University)
	query.Set("fields", paperFields)
	query.Set("limit", strconv.Itoa(c.limit(q.MaxResults)))

	// Year-based filtering: "2021-" means 2021 onward, "2021-2024" a range.
	switch {
	case q.FromYear > 0 && q.ToYear > 0:
		query.Set("year", fmt.Sprintf("%d-%d", q.FromYear, q.ToYear))
	case q.FromYear > 0:
		query.Set("year", fmt.Sprintf("%d-", q.FromYear))
	case q.ToYear > 0:
		query.Set("year", fmt.Sprintf("-%d", q.ToYear))
	}

	if q.MinCitations > 0 {
		query.Set("minCitationCount", strconv.Itoa(q.MinCitations))
	}

	searchURL.RawQuery = query.Encode()
	return searchURL.String(), nil
}

// get executes a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// limit clamps the requested result count to the configured maximum.
func (c *Client) limit(maxResults int) int {
	if maxResults <= 0 || maxResults > c.config.MaxResults {
		return c.config.MaxResults
	}
	return maxResults
}

// convertToPapers converts a slice of API paper results to domain papers.
func (c *Client) convertToPapers(results []PaperResult) []*domain.Paper {
	papers := make([]*domain.Paper, 0, len(results))
	for _, result := range results {
		papers = append(papers, c.convertToPaper(result))
	}
	return papers
}

// convertToPaper converts a single API paper result to a domain paper.
func (c *Client) convertToPaper(result PaperResult) *domain.Paper {
	title := result.Title
	if title == "" {
		title = domain.UntitledPlaceholder
	}

	venue := result.Venue
	if venue == "" && result.Journal != nil {
		venue = result.Journal.Name
	}

	var doi string
	if result.ExternalIDs != nil {
		doi = domain.NormalizeDOI(result.ExternalIDs.DOI)
	}

	authors := make([]domain.PaperAuthor, 0, len(result.Authors))
	for _, a := range result.Authors {
		authors = append(authors, domain.PaperAuthor{
			Name:         a.Name,
			ExternalID:   a.AuthorID,
			Institutions: a.Affiliations,
		})
	}

	year := result.Year
	if year == 0 {
		year = time.Now().Year()
	}

	return &domain.Paper{
		SourceID:  result.PaperID,
		Title:     title,
		Authors:   authors,
		Year:      year,
		Citations: result.CitationCount,
		Venue:     venue,
		DOI:       doi,
		URL:       result.URL,
		Abstract:  result.Abstract,
		Concepts:  result.FieldsOfStudy,
		Source:    domain.SourceTypeSemanticScholar,
	}
}
