package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for graphharvest
type Config struct {
	// Graph API connection
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// Throttle retry budget
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Client-side request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Collection bounds
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Field catalogs requested from the API
	Fields FieldsConfig `yaml:"fields" json:"fields"`

	// Export destination
	Output OutputConfig `yaml:"output" json:"output"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GraphConfig holds Graph API connection settings
type GraphConfig struct {
	AccessToken  string        `yaml:"access_token" json:"access_token"`
	APIVersion   string        `yaml:"api_version" json:"api_version"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	PostLinkBase string        `yaml:"post_link_base" json:"post_link_base"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds the throttle retry budget. The number of attempts for a
// single call is MaxWait / WaitInterval.
type RetryConfig struct {
	MaxWait       time.Duration `yaml:"max_wait" json:"max_wait"`
	WaitInterval  time.Duration `yaml:"wait_interval" json:"wait_interval"`
	ThrottleCodes []int         `yaml:"throttle_codes" json:"throttle_codes"`
}

// RateLimitConfig holds client-side pacing. Zero requests per hour disables it.
type RateLimitConfig struct {
	RequestsPerHour int    `yaml:"requests_per_hour" json:"requests_per_hour"`
	BurstSize       int    `yaml:"burst_size" json:"burst_size"`
	Strategy        string `yaml:"strategy" json:"strategy"`
}

// CollectionConfig holds default collection bounds
type CollectionConfig struct {
	MaxItems       int    `yaml:"max_items" json:"max_items"`
	FirstPageLimit int    `yaml:"first_page_limit" json:"first_page_limit"`
	DefaultUntil   string `yaml:"default_until" json:"default_until"`
}

// FieldsConfig holds the field catalogs sent with each request
type FieldsConfig struct {
	Profile         []string `yaml:"profile" json:"profile"`
	Post            []string `yaml:"post" json:"post"`
	Comment         []string `yaml:"comment" json:"comment"`
	InsightMetrics  []string `yaml:"insight_metrics" json:"insight_metrics"`
	IncludeInsights bool     `yaml:"include_insights" json:"include_insights"`
}

// OutputConfig holds export settings
type OutputConfig struct {
	Path      string `yaml:"path" json:"path"`
	SheetName string `yaml:"sheet_name" json:"sheet_name"`
	TableName string `yaml:"table_name" json:"table_name"`
	Overwrite bool   `yaml:"overwrite" json:"overwrite"`
}

// MetricsConfig holds the Prometheus listener address. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			APIVersion:   "v3.1",
			BaseURL:      "https://graph.facebook.com",
			PostLinkBase: "https://facebook.com",
			UserAgent:    "graphharvest/1.0",
			Timeout:      60 * time.Second,
		},
		Retry: RetryConfig{
			MaxWait:       2 * time.Hour,
			WaitInterval:  15 * time.Minute,
			ThrottleCodes: []int{4},
		},
		RateLimit: RateLimitConfig{
			RequestsPerHour: 0,
			BurstSize:       10,
			Strategy:        "sliding_window",
		},
		Collection: CollectionConfig{
			MaxItems:       100000,
			FirstPageLimit: 25,
			DefaultUntil:   "2100-01-01",
		},
		Fields: FieldsConfig{
			Profile:        append([]string(nil), DefaultProfileFields...),
			Post:           append([]string(nil), DefaultPostFields...),
			Comment:        append([]string(nil), DefaultCommentFields...),
			InsightMetrics: append([]string(nil), DefaultInsightMetrics...),
		},
		Output: OutputConfig{
			SheetName: "Sheet1",
			TableName: "records",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if token := os.Getenv("GRAPHHARVEST_ACCESS_TOKEN"); token != "" {
		c.Graph.AccessToken = token
	}
	if version := os.Getenv("GRAPHHARVEST_API_VERSION"); version != "" {
		c.Graph.APIVersion = version
	}
	if baseURL := os.Getenv("GRAPHHARVEST_BASE_URL"); baseURL != "" {
		c.Graph.BaseURL = baseURL
	}

	if maxWait := os.Getenv("GRAPHHARVEST_MAX_WAIT"); maxWait != "" {
		d, err := time.ParseDuration(maxWait)
		if err != nil {
			errs = append(errs, fmt.Errorf("GRAPHHARVEST_MAX_WAIT: %w", err))
		} else {
			c.Retry.MaxWait = d
		}
	}
	if interval := os.Getenv("GRAPHHARVEST_WAIT_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			errs = append(errs, fmt.Errorf("GRAPHHARVEST_WAIT_INTERVAL: %w", err))
		} else {
			c.Retry.WaitInterval = d
		}
	}

	if rph := os.Getenv("GRAPHHARVEST_REQUESTS_PER_HOUR"); rph != "" {
		val, err := strconv.Atoi(rph)
		if err != nil {
			errs = append(errs, fmt.Errorf("GRAPHHARVEST_REQUESTS_PER_HOUR: %w", err))
		} else {
			c.RateLimit.RequestsPerHour = val
		}
	}
	if maxItems := os.Getenv("GRAPHHARVEST_MAX_ITEMS"); maxItems != "" {
		val, err := strconv.Atoi(maxItems)
		if err != nil {
			errs = append(errs, fmt.Errorf("GRAPHHARVEST_MAX_ITEMS: %w", err))
		} else {
			c.Collection.MaxItems = val
		}
	}

	if insights := os.Getenv("GRAPHHARVEST_INCLUDE_INSIGHTS"); insights != "" {
		c.Fields.IncludeInsights = strings.ToLower(insights) == "true"
	}
	if output := os.Getenv("GRAPHHARVEST_OUTPUT"); output != "" {
		c.Output.Path = output
	}
	if addr := os.Getenv("GRAPHHARVEST_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
	}
	if logLevel := os.Getenv("GRAPHHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".graphharvest.yaml",
		".graphharvest.yml",
		filepath.Join(home, ".config", "graphharvest", "config.yaml"),
		filepath.Join(home, ".config", "graphharvest", "config.yml"),
		filepath.Join(home, ".graphharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Graph.BaseURL == "" {
		errs = append(errs, errors.New("graph base URL is required"))
	}
	if c.Graph.APIVersion == "" {
		errs = append(errs, errors.New("graph API version is required"))
	}
	if c.Graph.Timeout <= 0 {
		errs = append(errs, errors.New("graph timeout must be positive"))
	}

	if c.Retry.WaitInterval <= 0 {
		errs = append(errs, errors.New("retry wait interval must be positive"))
	}
	if c.Retry.MaxWait < 0 {
		errs = append(errs, errors.New("retry max wait cannot be negative"))
	}
	if len(c.Retry.ThrottleCodes) == 0 {
		errs = append(errs, errors.New("at least one throttle code is required"))
	}

	if c.RateLimit.RequestsPerHour < 0 {
		errs = append(errs, errors.New("requests per hour cannot be negative"))
	}
	if s := c.RateLimit.Strategy; s != "" && s != "sliding_window" && s != "token_bucket" {
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", s))
	}
	if c.RateLimit.RequestsPerHour > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Collection.MaxItems <= 0 {
		errs = append(errs, errors.New("max items must be positive"))
	}
	if c.Collection.FirstPageLimit <= 0 {
		errs = append(errs, errors.New("first page limit must be positive"))
	}
	if _, err := ParseTime(c.Collection.DefaultUntil); err != nil {
		errs = append(errs, fmt.Errorf("invalid default until: %w", err))
	}

	if len(c.Fields.Post) == 0 {
		errs = append(errs, errors.New("post field catalog is empty"))
	}
	if len(c.Fields.Comment) == 0 {
		errs = append(errs, errors.New("comment field catalog is empty"))
	}
	if len(c.Fields.Profile) == 0 {
		errs = append(errs, errors.New("profile field catalog is empty"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file. The access token is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Graph.AccessToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map override the loaded values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["access-token"].(string); ok && token != "" {
		c.Graph.AccessToken = token
	}
	if version, ok := flags["api-version"].(string); ok && version != "" {
		c.Graph.APIVersion = version
	}
	if maxWait, ok := flags["max-wait"].(time.Duration); ok && maxWait > 0 {
		c.Retry.MaxWait = maxWait
	}
	if interval, ok := flags["wait-interval"].(time.Duration); ok && interval > 0 {
		c.Retry.WaitInterval = interval
	}
	if rph, ok := flags["requests-per-hour"].(int); ok && rph >= 0 {
		c.RateLimit.RequestsPerHour = rph
	}
	if insights, ok := flags["insights"].(bool); ok {
		c.Fields.IncludeInsights = insights
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.Path = output
	}
	if overwrite, ok := flags["overwrite"].(bool); ok {
		c.Output.Overwrite = overwrite
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".graphharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a user supplied timestamp. Values without an offset are
// taken as UTC. The result is always in UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
