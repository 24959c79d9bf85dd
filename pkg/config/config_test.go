package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "v3.1", cfg.Graph.APIVersion)
	assert.Equal(t, "https://graph.facebook.com", cfg.Graph.BaseURL)
	assert.Equal(t, "https://facebook.com", cfg.Graph.PostLinkBase)

	assert.Equal(t, 2*time.Hour, cfg.Retry.MaxWait)
	assert.Equal(t, 15*time.Minute, cfg.Retry.WaitInterval)
	assert.Equal(t, []int{4}, cfg.Retry.ThrottleCodes)

	assert.Equal(t, 0, cfg.RateLimit.RequestsPerHour)
	assert.Equal(t, 100000, cfg.Collection.MaxItems)
	assert.Equal(t, 25, cfg.Collection.FirstPageLimit)
	assert.Equal(t, "2100-01-01", cfg.Collection.DefaultUntil)

	assert.Equal(t, "id,fan_count,username,link,name", cfg.Fields.ProfileFieldSpec())
	assert.False(t, cfg.Fields.IncludeInsights)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigDoesNotShareCatalogs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fields.Post[0] = "mutated"

	assert.Equal(t, "id", DefaultPostFields[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRAPHHARVEST_ACCESS_TOKEN", "env-token")
	t.Setenv("GRAPHHARVEST_API_VERSION", "v19.0")
	t.Setenv("GRAPHHARVEST_MAX_WAIT", "1h")
	t.Setenv("GRAPHHARVEST_WAIT_INTERVAL", "10m")
	t.Setenv("GRAPHHARVEST_REQUESTS_PER_HOUR", "200")
	t.Setenv("GRAPHHARVEST_MAX_ITEMS", "500")
	t.Setenv("GRAPHHARVEST_INCLUDE_INSIGHTS", "true")
	t.Setenv("GRAPHHARVEST_OUTPUT", "/tmp/out.csv")
	t.Setenv("GRAPHHARVEST_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.Graph.AccessToken)
	assert.Equal(t, "v19.0", cfg.Graph.APIVersion)
	assert.Equal(t, time.Hour, cfg.Retry.MaxWait)
	assert.Equal(t, 10*time.Minute, cfg.Retry.WaitInterval)
	assert.Equal(t, 200, cfg.RateLimit.RequestsPerHour)
	assert.Equal(t, 500, cfg.Collection.MaxItems)
	assert.True(t, cfg.Fields.IncludeInsights)
	assert.Equal(t, "/tmp/out.csv", cfg.Output.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("GRAPHHARVEST_MAX_WAIT", "forever")
	t.Setenv("GRAPHHARVEST_MAX_ITEMS", "lots")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAPHHARVEST_MAX_WAIT")
	assert.Contains(t, err.Error(), "GRAPHHARVEST_MAX_ITEMS")
	assert.Equal(t, 2*time.Hour, cfg.Retry.MaxWait)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
graph:
  api_version: v12.0
retry:
  max_wait: 30m
  wait_interval: 5m
  throttle_codes: [4, 17, 32]
collection:
  max_items: 250
fields:
  comment: [id, message]
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "v12.0", cfg.Graph.APIVersion)
		assert.Equal(t, 30*time.Minute, cfg.Retry.MaxWait)
		assert.Equal(t, 5*time.Minute, cfg.Retry.WaitInterval)
		assert.Equal(t, []int{4, 17, 32}, cfg.Retry.ThrottleCodes)
		assert.Equal(t, 250, cfg.Collection.MaxItems)
		assert.Equal(t, "id,message", cfg.Fields.CommentFieldSpec())
		// untouched sections keep defaults
		assert.Equal(t, "https://graph.facebook.com", cfg.Graph.BaseURL)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("retry: [unclosed"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "zero wait interval",
			mutate:  func(c *Config) { c.Retry.WaitInterval = 0 },
			wantErr: "retry wait interval must be positive",
		},
		{
			name:    "no throttle codes",
			mutate:  func(c *Config) { c.Retry.ThrottleCodes = nil },
			wantErr: "at least one throttle code is required",
		},
		{
			name:    "non-positive max items",
			mutate:  func(c *Config) { c.Collection.MaxItems = 0 },
			wantErr: "max items must be positive",
		},
		{
			name:    "bad default until",
			mutate:  func(c *Config) { c.Collection.DefaultUntil = "someday" },
			wantErr: "invalid default until",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerHour = 100; c.RateLimit.BurstSize = 0 },
			wantErr: "burst size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveOmitsAccessToken(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Graph.AccessToken = "secret"
	cfg.Collection.MaxItems = 42
	require.NoError(t, cfg.Save(configPath))
	assert.Equal(t, "secret", cfg.Graph.AccessToken)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))
	assert.Equal(t, 42, loaded.Collection.MaxItems)
	assert.Empty(t, loaded.Graph.AccessToken)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"access-token":      "flag-token",
		"max-wait":          45 * time.Minute,
		"wait-interval":     time.Minute,
		"requests-per-hour": 120,
		"insights":          true,
		"output":            "posts.xlsx",
		"log-level":         "warn",
	})

	assert.Equal(t, "flag-token", cfg.Graph.AccessToken)
	assert.Equal(t, 45*time.Minute, cfg.Retry.MaxWait)
	assert.Equal(t, time.Minute, cfg.Retry.WaitInterval)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerHour)
	assert.True(t, cfg.Fields.IncludeInsights)
	assert.Equal(t, "posts.xlsx", cfg.Output.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
graph:
  api_version: v10.0
  access_token: file-token
collection:
  max_items: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	t.Setenv("GRAPHHARVEST_MAX_ITEMS", "20")
	t.Setenv("GRAPHHARVEST_ACCESS_TOKEN", "env-token")

	cfg, err := Load(configPath, map[string]interface{}{"access-token": "flag-token"})
	require.NoError(t, err)

	assert.Equal(t, "flag-token", cfg.Graph.AccessToken)
	assert.Equal(t, 20, cfg.Collection.MaxItems)
	assert.Equal(t, "v10.0", cfg.Graph.APIVersion)
}

func TestLoadValidationFailure(t *testing.T) {
	cfg, err := Load("", map[string]interface{}{"log-level": "shout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.Nil(t, cfg)
}

func TestPostFieldSpec(t *testing.T) {
	fields := FieldsConfig{
		Post:           []string{"id", "message"},
		InsightMetrics: []string{"post_engaged_users", "post_engaged_fan"},
	}
	assert.Equal(t, "id,message", fields.PostFieldSpec())

	fields.IncludeInsights = true
	assert.Equal(t, "id,message,insights.metric(post_engaged_users,post_engaged_fan)", fields.PostFieldSpec())
	assert.Equal(t, []string{"id", "message"}, fields.Post)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2020-01-01", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2020-01-05 10:00:00", time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"2020-01-05T10:00:00", time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"2020-01-05T12:00:00+02:00", time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"2020-01-05T10:00:00+0000", time.Date(2020, 1, 5, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseTime("yesterday")
	assert.Error(t, err)
}
