package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/domain"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
)

const (
	// DefaultBaseURL is the default CrossRef REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// CrossRef's polite pool asks for a mailto and moderate request rates.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 50

	// sourceName is the human-readable name for this source.
	sourceName = "CrossRef"
)

// jatsTagPattern strips JATS XML markup from CrossRef abstracts.
var jatsTagPattern = regexp.MustCompile(`<[^>]+>`)

// Config holds configuration for the CrossRef client.
type Config struct {
	// BaseURL is the CrossRef API base URL.
	// Defaults to https://api.crossref.org
	BaseURL string

	// Email is the contact email for the polite pool.
	Email string

	// Timeout is the request timeout.
	// Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 5 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 5.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	// Defaults to 50.
	MaxResults int

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
}

// Client implements the sources.Source interface for CrossRef.
//
// CrossRef has no usable institution-scoped query, so the client only
// participates in author-scoped searches; SearchInstitution always comes
// back empty.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger
}

// Ensure Client implements the Source interface.
var _ sources.Source = (*Client)(nil)

// New creates a new CrossRef client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	userAgent := "ScoutLab-RecruitingService/1.0"
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("source", "crossref").Logger(),
	}
}

// NewWithHTTPClient creates a new CrossRef client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("source", "crossref").Logger(),
	}
}

// SearchInstitution is not supported by CrossRef; it always returns an
// empty result so institution searches fall through to other sources.
func (c *Client) SearchInstitution(ctx context.Context, q sources.InstitutionQuery) ([]*domain.Paper, error) {
	c.logger.Debug().
		Str("university", q.University).
		Msg("institution search not supported, returning empty")
	return []*domain.Paper{}, nil
}

// SearchAuthor queries the works endpoint filtered by author name.
func (c *Client) SearchAuthor(ctx context.Context, q sources.AuthorQuery) ([]*domain.Paper, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = "/works"

	maxResults := q.MaxResults
	if maxResults <= 0 || maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}

	query := url.Values{}
	query.Set("query.author", q.Name)
	query.Set("rows", strconv.Itoa(maxResults))
	query.Set("sort", "is-referenced-by-count")
	query.Set("order", "desc")
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
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
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var worksResp WorksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&worksResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]*domain.Paper, 0, len(worksResp.Message.Items))
	for i := range worksResp.Message.Items {
		papers = append(papers, c.workToPaper(&worksResp.Message.Items[i]))
	}
	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossRef
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// workToPaper converts a CrossRef work to a domain paper.
func (c *Client) workToPaper(work *Work) *domain.Paper {
	title := domain.UntitledPlaceholder
	if len(work.Title) > 0 && work.Title[0] != "" {
		title = work.Title[0]
	}

	var venue string
	if len(work.ContainerTitle) > 0 {
		venue = work.ContainerTitle[0]
	}

	authors := make([]domain.PaperAuthor, 0, len(work.Author))
	for _, contrib := range work.Author {
		name := strings.TrimSpace(contrib.Given + " " + contrib.Family)
		if name == "" {
			continue
		}
		author := domain.PaperAuthor{
			Name:       name,
			ExternalID: normalizeORCID(contrib.ORCID),
		}
		for _, aff := range contrib.Affiliation {
			if aff.Name != "" {
				author.Institutions = append(author.Institutions, aff.Name)
			}
		}
		authors = append(authors, author)
	}

	doi := domain.NormalizeDOI(work.DOI)
	paperURL := work.URL
	if paperURL == "" && doi != "" {
		paperURL = "https://doi.org/" + doi
	}

	year := work.Issued.Year()
	if year == 0 {
		year = time.Now().Year()
	}

	return &domain.Paper{
		SourceID:  doi,
		Title:     title,
		Authors:   authors,
		Year:      year,
		Citations: work.IsReferencedByCount,
		Venue:     venue,
		DOI:       doi,
		URL:       paperURL,
		Abstract:  stripJATS(work.Abstract),
		Concepts:  work.Subject,
		Source:    domain.SourceTypeCrossRef,
	}
}

// normalizeORCID strips URL prefixes from ORCID identifiers.
func normalizeORCID(orcid string) string {
	orcid = strings.TrimPrefix(orcid, "https://orcid.org/")
	orcid = strings.TrimPrefix(orcid, "http://orcid.org/")
	return strings.TrimSpace(orcid)
}

// stripJATS removes JATS XML tags from CrossRef abstract markup.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	return strings.TrimSpace(jatsTagPattern.ReplaceAllString(abstract, " "))
}
