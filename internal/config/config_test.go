package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/vidlex/internal/config"
)

var configEnvKeys = []string{
	"ANALYSIS_COMMON_THRESHOLD",
	"ANALYSIS_REQUIRE_ALL",
	"ANALYSIS_LANGUAGES",
	"ANALYSIS_MIN_TOKEN_LENGTH",
	"ANALYSIS_TABLES_FILE",
	"CATALOG_PROVIDER",
	"YOUTUBE_API_KEY",
	"CATALOG_BASE_URL",
	"CATALOG_REQUEST_TIMEOUT",
	"CATALOG_MAX_CONCURRENCY",
	"POLITENESS_DEFAULT_MIN_DELAY",
	"POLITENESS_ROBOTS_CACHE_DURATION",
	"POLITENESS_ENABLE_ROBOTS_CHECK",
	"POLITENESS_USER_AGENT",
	"STORAGE_BACKEND",
	"STORAGE_PATH",
	"STORAGE_TTL",
	"SERVER_ADDR",
	"LOG_LEVEL",
}

// clearEnv unsets every config variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	assert.Equal(t, 2, cfg.Analysis.CommonThreshold)
	assert.False(t, cfg.Analysis.RequireAll)
	assert.Equal(t, []string{"english", "russian"}, cfg.Analysis.Languages)
	assert.Equal(t, 3, cfg.Analysis.MinTokenLength)
	assert.Empty(t, cfg.Analysis.TablesFile)

	assert.Equal(t, "youtube", cfg.Catalog.Provider)
	assert.Equal(t, 15*time.Second, cfg.Catalog.RequestTimeout)
	assert.Equal(t, 4, cfg.Catalog.MaxConcurrency)

	assert.Equal(t, 1*time.Second, cfg.Politeness.DefaultMinDelay)
	assert.True(t, cfg.Politeness.EnableRobotsCheck)

	assert.Equal(t, "none", cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"ANALYSIS_COMMON_THRESHOLD":    "3",
		"ANALYSIS_REQUIRE_ALL":         "true",
		"ANALYSIS_LANGUAGES":           " en, ru ,",
		"ANALYSIS_TABLES_FILE":         "/etc/vidlex/tables.yaml",
		"CATALOG_PROVIDER":             "scrape",
		"YOUTUBE_API_KEY":              "key123",
		"CATALOG_REQUEST_TIMEOUT":      "3s",
		"CATALOG_MAX_CONCURRENCY":      "8",
		"POLITENESS_DEFAULT_MIN_DELAY": "250ms",
		"STORAGE_BACKEND":              "bolt",
		"STORAGE_PATH":                 "/tmp/vidlex.db",
		"SERVER_ADDR":                  ":9090",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg := config.Load()

	assert.Equal(t, 3, cfg.Analysis.CommonThreshold)
	assert.True(t, cfg.Analysis.RequireAll)
	assert.Equal(t, []string{"en", "ru"}, cfg.Analysis.Languages)
	assert.Equal(t, "/etc/vidlex/tables.yaml", cfg.Analysis.TablesFile)
	assert.Equal(t, "scrape", cfg.Catalog.Provider)
	assert.Equal(t, "key123", cfg.Catalog.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Catalog.RequestTimeout)
	assert.Equal(t, 8, cfg.Catalog.MaxConcurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Politeness.DefaultMinDelay)
	assert.Equal(t, "bolt", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/vidlex.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"threshold below two", func(c *config.Config) { c.Analysis.CommonThreshold = 1 }},
		{"zero token length", func(c *config.Config) { c.Analysis.MinTokenLength = 0 }},
		{"unknown provider", func(c *config.Config) { c.Catalog.Provider = "vimeo" }},
		{"zero concurrency", func(c *config.Config) { c.Catalog.MaxConcurrency = 0 }},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := config.Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("require all ignores threshold", func(t *testing.T) {
		clearEnv(t)
		cfg := config.Load()
		cfg.Analysis.CommonThreshold = 0
		cfg.Analysis.RequireAll = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestGetIntEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"Valid int", "42", 10, 42},
		{"Invalid int", "not_a_number", 10, 10},
		{"Negative int", "-5", 10, -5},
		{"Zero", "0", 10, 0},
		{"Unset", "", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			assert.Equal(t, tt.expected, config.GetIntEnv("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{"True string", "true", false, true},
		{"False string", "false", true, false},
		{"1 (true)", "1", false, true},
		{"Invalid bool", "invalid", true, true},
		{"Unset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.expected, config.GetBoolEnv("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		expected     time.Duration
	}{
		{"Seconds", "5s", 1 * time.Second, 5 * time.Second},
		{"Combined", "1h30m", 1 * time.Second, 90 * time.Minute},
		{"Invalid duration", "invalid", 5 * time.Second, 5 * time.Second},
		{"Unset", "", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			assert.Equal(t, tt.expected, config.GetDurationEnv("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("TEST_LIST", "")
	assert.Equal(t, []string{"a"}, config.GetListEnv("TEST_LIST", []string{"a"}))

	t.Setenv("TEST_LIST", " , ,")
	assert.Equal(t, []string{"a"}, config.GetListEnv("TEST_LIST", []string{"a"}))

	t.Setenv("TEST_LIST", "x,y , z")
	assert.Equal(t, []string{"x", "y", "z"}, config.GetListEnv("TEST_LIST", nil))
}
