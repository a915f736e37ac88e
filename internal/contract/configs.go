package contract

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Default values for configuration.
const (
	DefaultOpenSearchURL     = "http://localhost:9200/"
	DefaultOpenSearchIndex   = "events"
	DefaultRepositoryTimeout = 3600 // seconds
	DefaultPollInterval      = 25 * time.Second
	DefaultLookback          = 7 * 24 * time.Hour
	DefaultWindowDays        = 365
	DefaultHistoryLimit      = 20
)

// DateLayout is the layout of --from-date and --to-date.
const DateLayout = "2006-01-02"

// DefaultWorkers is the default number of concurrent metrics computations.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for a metrics run.
// This struct remains the "final, validated" config.
type Config struct {
	SBOMFile string

	GrimoireLabURL            string
	GrimoireLabUser           string
	GrimoireLabPassword       string // Please use env var or a secret as this is plaintext
	GrimoireLabPasswordSecret string
	AWSRegion                 string

	OpenSearchURL   string
	OpenSearchIndex string
	VerifyCerts     bool

	Output     schema.OutputMode
	OutputFile string
	S3URI      string
	Width      int // Terminal width override (0 = auto-detect)

	RepositoryTimeout time.Duration
	PollInterval      time.Duration
	Lookback          time.Duration
	Workers           int

	FromDate time.Time // zero = open
	ToDate   time.Time // zero = open

	CodePattern   *regexp.Regexp // nil = built-in pattern
	BinaryPattern *regexp.Regexp // nil = built-in pattern

	HistoryBackend   schema.DatabaseBackend // empty = disabled
	HistoryDBConnect string                 // Please use env var as this is plaintext

	Verbose   bool
	UseColors bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	SBOMFile string

	GrimoireLabURL            string `mapstructure:"grimoirelab-url"`
	GrimoireLabUser           string `mapstructure:"grimoirelab-user"`
	GrimoireLabPassword       string `mapstructure:"grimoirelab-password"`
	GrimoireLabPasswordSecret string `mapstructure:"grimoirelab-password-secret"`
	AWSRegion                 string `mapstructure:"aws-region"`

	OpenSearchURL   string `mapstructure:"opensearch-url"`
	OpenSearchIndex string `mapstructure:"opensearch-index"`
	VerifyCerts     bool   `mapstructure:"verify-certs"`

	Output string `mapstructure:"output"`
	Format string `mapstructure:"format"`
	S3URI  string `mapstructure:"s3-uri"`
	Width  int    `mapstructure:"width"`

	RepositoryTimeout int           `mapstructure:"repository-timeout"`
	PollInterval      time.Duration `mapstructure:"poll-interval"`
	Workers           int           `mapstructure:"workers"`

	FromDate string `mapstructure:"from-date"`
	ToDate   string `mapstructure:"to-date"`

	CodeFilePattern   string `mapstructure:"code-file-pattern"`
	BinaryFilePattern string `mapstructure:"binary-file-pattern"`

	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	Verbose bool   `mapstructure:"verbose"`
	Color   string `mapstructure:"color"`
}

// Clone returns a copy of the config that can be modified independently.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// WindowDays returns the number of days covered by the date range, or
// DefaultWindowDays when either bound is open.
func (c *Config) WindowDays() int {
	return WindowDays(c.FromDate, c.ToDate)
}

// WindowDays returns the whole days between from and to, or DefaultWindowDays
// when either of them is zero.
func WindowDays(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return DefaultWindowDays
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

// ValidateRun checks the settings only needed to talk to GrimoireLab.
func (c *Config) ValidateRun() error {
	if c.SBOMFile == "" {
		return fmt.Errorf("an SBOM file is required")
	}
	if c.GrimoireLabURL == "" {
		return fmt.Errorf("--grimoirelab-url is required")
	}
	return nil
}

// ProcessAndValidate populates cfg from input. now anchors the default --from-date.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDateRange(cfg, input, now); err != nil {
		return err
	}
	if err := processFilePatterns(cfg, input); err != nil {
		return err
	}
	return validateHistoryBackend(cfg, input)
}

// validateSimpleInputs processes and validates all non-date related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.SBOMFile = input.SBOMFile
	cfg.GrimoireLabURL = strings.TrimSpace(input.GrimoireLabURL)
	cfg.GrimoireLabUser = input.GrimoireLabUser
	cfg.GrimoireLabPassword = input.GrimoireLabPassword
	cfg.GrimoireLabPasswordSecret = input.GrimoireLabPasswordSecret
	cfg.AWSRegion = input.AWSRegion
	cfg.VerifyCerts = input.VerifyCerts
	cfg.OutputFile = input.Output
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.Lookback = DefaultLookback

	cfg.OpenSearchURL = input.OpenSearchURL
	if cfg.OpenSearchURL == "" {
		cfg.OpenSearchURL = DefaultOpenSearchURL
	}
	cfg.OpenSearchIndex = input.OpenSearchIndex
	if cfg.OpenSearchIndex == "" {
		cfg.OpenSearchIndex = DefaultOpenSearchIndex
	}

	useColors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = useColors

	format := strings.ToLower(input.Format)
	if format == "" {
		format = string(schema.JSONOut)
	}
	cfg.Output = schema.OutputMode(format)
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be json, yaml, csv, table", input.Format)
	}

	if input.RepositoryTimeout <= 0 {
		return fmt.Errorf("repository-timeout must be greater than 0 (received %d)", input.RepositoryTimeout)
	}
	cfg.RepositoryTimeout = time.Duration(input.RepositoryTimeout) * time.Second

	cfg.PollInterval = input.PollInterval
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollInterval < 0 {
		return fmt.Errorf("poll-interval must be greater than 0 (received %s)", input.PollInterval)
	}

	cfg.Workers = input.Workers
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}

	cfg.S3URI = input.S3URI
	if cfg.S3URI != "" {
		if _, _, err := ParseS3URI(cfg.S3URI); err != nil {
			return err
		}
	}

	return nil
}

// processDateRange parses --from-date and --to-date. An empty --from-date
// defaults to one year before now.
func processDateRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.FromDate = time.Time{}
	cfg.ToDate = time.Time{}

	if input.FromDate == "" {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		cfg.FromDate = today.AddDate(0, 0, -DefaultWindowDays)
	} else {
		from, err := time.Parse(DateLayout, input.FromDate)
		if err != nil {
			return fmt.Errorf("invalid --from-date %q: expected format YYYY-MM-DD", input.FromDate)
		}
		cfg.FromDate = from
	}

	if input.ToDate != "" {
		to, err := time.Parse(DateLayout, input.ToDate)
		if err != nil {
			return fmt.Errorf("invalid --to-date %q: expected format YYYY-MM-DD", input.ToDate)
		}
		if !to.After(cfg.FromDate) {
			return fmt.Errorf("--to-date (%s) must be after --from-date (%s)", input.ToDate, cfg.FromDate.Format(DateLayout))
		}
		cfg.ToDate = to
	}

	return nil
}

// RevalidateDateRange replaces the date range of cfg when a tool call
// overrides it. Empty strings keep the configured range.
func RevalidateDateRange(cfg *Config, fromDate, toDate string, now time.Time) error {
	if fromDate == "" && toDate == "" {
		return nil
	}
	if fromDate == "" && !cfg.FromDate.IsZero() {
		fromDate = cfg.FromDate.Format(DateLayout)
	}
	if toDate == "" && !cfg.ToDate.IsZero() {
		toDate = cfg.ToDate.Format(DateLayout)
	}
	return processDateRange(cfg, &ConfigRawInput{FromDate: fromDate, ToDate: toDate}, now)
}

// processFilePatterns compiles the optional file type overrides.
func processFilePatterns(cfg *Config, input *ConfigRawInput) error {
	cfg.CodePattern, cfg.BinaryPattern = nil, nil

	if input.CodeFilePattern != "" {
		re, err := regexp.Compile(input.CodeFilePattern)
		if err != nil {
			return fmt.Errorf("invalid --code-file-pattern: %w", err)
		}
		cfg.CodePattern = re
	}
	if input.BinaryFilePattern != "" {
		re, err := regexp.Compile(input.BinaryFilePattern)
		if err != nil {
			return fmt.Errorf("invalid --binary-file-pattern: %w", err)
		}
		cfg.BinaryPattern = re
	}
	return nil
}

// validateHistoryBackend validates the optional run history backend.
func validateHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			return nil
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}
