package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the analyzer service
type Config struct {
	Analysis   AnalysisConfig
	Catalog    CatalogConfig
	Politeness PolitenessConfig
	Storage    StorageConfig
	Server     ServerConfig
	LogLevel   string
}

// AnalysisConfig holds the overlap analysis parameters
type AnalysisConfig struct {
	CommonThreshold int
	RequireAll      bool
	Languages       []string
	MinTokenLength  int
	TablesFile      string
}

// CatalogConfig holds video metadata provider configuration
type CatalogConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	MaxConcurrency int
}

// PolitenessConfig holds the page scraper's politeness settings
type PolitenessConfig struct {
	DefaultMinDelay     time.Duration
	RobotsCacheDuration time.Duration
	EnableRobotsCheck   bool
	UserAgent           string
}

// StorageConfig holds metadata cache configuration
type StorageConfig struct {
	Backend string
	Path    string
	TTL     time.Duration
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			CommonThreshold: GetIntEnv("ANALYSIS_COMMON_THRESHOLD", 2),
			RequireAll:      GetBoolEnv("ANALYSIS_REQUIRE_ALL", false),
			Languages:       GetListEnv("ANALYSIS_LANGUAGES", []string{"english", "russian"}),
			MinTokenLength:  GetIntEnv("ANALYSIS_MIN_TOKEN_LENGTH", 3),
			TablesFile:      GetStringEnv("ANALYSIS_TABLES_FILE", ""),
		},
		Catalog: CatalogConfig{
			Provider:       GetStringEnv("CATALOG_PROVIDER", "youtube"),
			APIKey:         GetStringEnv("YOUTUBE_API_KEY", ""),
			BaseURL:        GetStringEnv("CATALOG_BASE_URL", ""),
			RequestTimeout: GetDurationEnv("CATALOG_REQUEST_TIMEOUT", 15*time.Second),
			MaxConcurrency: GetIntEnv("CATALOG_MAX_CONCURRENCY", 4),
		},
		Politeness: PolitenessConfig{
			DefaultMinDelay:     GetDurationEnv("POLITENESS_DEFAULT_MIN_DELAY", 1*time.Second),
			RobotsCacheDuration: GetDurationEnv("POLITENESS_ROBOTS_CACHE_DURATION", 24*time.Hour),
			EnableRobotsCheck:   GetBoolEnv("POLITENESS_ENABLE_ROBOTS_CHECK", true),
			UserAgent:           GetStringEnv("POLITENESS_USER_AGENT", "vidlex/1.0"),
		},
		Storage: StorageConfig{
			Backend: GetStringEnv("STORAGE_BACKEND", "none"),
			Path:    GetStringEnv("STORAGE_PATH", "./data"),
			TTL:     GetDurationEnv("STORAGE_TTL", 24*time.Hour),
		},
		Server: ServerConfig{
			Addr: GetStringEnv("SERVER_ADDR", ":8080"),
		},
		LogLevel: GetStringEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports settings that cannot work
func (c *Config) Validate() error {
	if c.Analysis.CommonThreshold < 2 && !c.Analysis.RequireAll {
		return fmt.Errorf("common threshold must be at least 2, got %d", c.Analysis.CommonThreshold)
	}
	if c.Analysis.MinTokenLength < 1 {
		return fmt.Errorf("minimum token length must be positive, got %d", c.Analysis.MinTokenLength)
	}
	switch c.Catalog.Provider {
	case "youtube", "scrape":
	default:
		return fmt.Errorf("unknown catalog provider %q", c.Catalog.Provider)
	}
	if c.Catalog.MaxConcurrency < 1 {
		return fmt.Errorf("catalog concurrency must be positive, got %d", c.Catalog.MaxConcurrency)
	}
	switch c.Storage.Backend {
	case "none", "file", "bolt":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetListEnv reads a comma-separated list
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
