// Package config provides configuration management for the PhD recruiting service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the recruiting service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Sources contains paper source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// Pipeline contains candidate-identification pipeline thresholds.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	// Population runs are long; keep this comfortably above the worst-case
	// run duration.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// SourcesConfig holds configuration for all paper source APIs.
type SourcesConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings. An API key
	// is required for searches; without one the source is skipped, not
	// failed.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// CrossRef contains CrossRef API settings.
	CrossRef SourceConfig `mapstructure:"crossref"`
}

// SourceConfig holds configuration for a single paper source API.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key, loaded from an environment variable
	// (e.g. RECRUIT_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// Email is the contact email sent in the identifying User-Agent header.
	Email string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per query (page size cap).
	MaxResults int `mapstructure:"max_results"`
}

// PipelineConfig holds the candidate-identification thresholds. They were
// tuned by hand rather than derived from data, which is exactly why they
// live in configuration: nothing in the pipeline logic carries magic
// literals.
type PipelineConfig struct {
	// MinTotalCitations is the inclusive lower bound on an author's total
	// citations for candidate eligibility.
	MinTotalCitations int `mapstructure:"min_total_citations"`
	// MaxTotalCitations is the inclusive upper bound on an author's total
	// citations; above it the author is assumed established faculty.
	MaxTotalCitations int `mapstructure:"max_total_citations"`
	// RecentYears is how far back the most recent paper may be for the
	// author to still count as active.
	RecentYears int `mapstructure:"recent_years"`
	// MinAuthorNameLen filters out initials-only or corrupted author names.
	MinAuthorNameLen int `mapstructure:"min_author_name_len"`
	// CandidateCap truncates the citation-ranked candidate list per run.
	CandidateCap int `mapstructure:"candidate_cap"`
	// PerUniversityLimit bounds how many identified candidates are
	// persisted per university.
	PerUniversityLimit int `mapstructure:"per_university_limit"`
	// TopPapersPerCandidate bounds how many of an author's papers are
	// persisted alongside the candidate row.
	TopPapersPerCandidate int `mapstructure:"top_papers_per_candidate"`
	// AbstractMaxLen truncates stored abstracts.
	AbstractMaxLen int `mapstructure:"abstract_max_len"`
	// InsertBatchSize is the chunk size for publication batch inserts.
	InsertBatchSize int `mapstructure:"insert_batch_size"`
	// MaxUniversitiesPerRun hard-caps the institutions processed in one
	// population run.
	MaxUniversitiesPerRun int `mapstructure:"max_universities_per_run"`
	// InterInstitutionDelay is the fixed pause between institutions to
	// avoid rate-limit pressure on the upstream APIs.
	InterInstitutionDelay time.Duration `mapstructure:"inter_institution_delay"`
	// InstitutionYearWindow is the publication-year lookback for the
	// institution-scoped search strategy.
	InstitutionYearWindow int `mapstructure:"institution_year_window"`
	// FallbackYearWindow is the publication-year lookback for the
	// free-text fallback strategy.
	FallbackYearWindow int `mapstructure:"fallback_year_window"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("RECRUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/phd-recruiting-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets and contact addresses come exclusively from environment
	// variables; their fields use mapstructure:"-".
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("RECRUIT_SOURCES_SEMANTIC_SCHOLAR_API_KEY")

	email := os.Getenv("RECRUIT_CONTACT_EMAIL")
	cfg.Sources.OpenAlex.Email = email
	cfg.Sources.CrossRef.Email = email
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "recruit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "phd_recruiting")
	// Default to "require" for production security. Use RECRUIT_DATABASE_SSL_MODE=disable locally.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Source defaults - OpenAlex
	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.rate_limit", 10.0)
	v.SetDefault("sources.openalex.max_results", 100)

	// Source defaults - Semantic Scholar
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("sources.semantic_scholar.max_results", 50)

	// Source defaults - CrossRef
	v.SetDefault("sources.crossref.enabled", true)
	v.SetDefault("sources.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("sources.crossref.timeout", "30s")
	v.SetDefault("sources.crossref.rate_limit", 5.0)
	v.SetDefault("sources.crossref.max_results", 50)

	// Pipeline defaults
	v.SetDefault("pipeline.min_total_citations", 1)
	v.SetDefault("pipeline.max_total_citations", 10000)
	v.SetDefault("pipeline.recent_years", 5)
	v.SetDefault("pipeline.min_author_name_len", 3)
	v.SetDefault("pipeline.candidate_cap", 20)
	v.SetDefault("pipeline.per_university_limit", 5)
	v.SetDefault("pipeline.top_papers_per_candidate", 5)
	v.SetDefault("pipeline.abstract_max_len", 500)
	v.SetDefault("pipeline.insert_batch_size", 500)
	v.SetDefault("pipeline.max_universities_per_run", 2)
	v.SetDefault("pipeline.inter_institution_delay", "1s")
	v.SetDefault("pipeline.institution_year_window", 4)
	v.SetDefault("pipeline.fallback_year_window", 2)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	p := c.Pipeline
	if p.MinTotalCitations < 0 {
		return fmt.Errorf("pipeline min_total_citations must be >= 0")
	}
	if p.MaxTotalCitations < p.MinTotalCitations {
		return fmt.Errorf("pipeline max_total_citations (%d) must be >= min_total_citations (%d)",
			p.MaxTotalCitations, p.MinTotalCitations)
	}
	if p.RecentYears <= 0 {
		return fmt.Errorf("pipeline recent_years must be positive")
	}
	if p.CandidateCap <= 0 {
		return fmt.Errorf("pipeline candidate_cap must be positive")
	}
	if p.TopPapersPerCandidate <= 0 {
		return fmt.Errorf("pipeline top_papers_per_candidate must be positive")
	}
	if p.InsertBatchSize <= 0 {
		return fmt.Errorf("pipeline insert_batch_size must be positive")
	}
	if p.MaxUniversitiesPerRun <= 0 {
		return fmt.Errorf("pipeline max_universities_per_run must be positive")
	}

	return nil
}
