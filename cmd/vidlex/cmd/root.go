package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/config"
	"github.com/knowledge-engine/vidlex/internal/engine"
	"github.com/knowledge-engine/vidlex/internal/storage"
)

var (
	itemsFile  string
	threshold  int
	requireAll bool
	provider   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "vidlex",
	Short:        "Find the words a set of videos have in common",
	Long:         "Fetches video metadata and reports the title words, tags and description words shared across videos.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&itemsFile, "items", "", "JSON or YAML file with inline items to analyze")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "minimum number of items a term must appear in (default from config)")
	rootCmd.PersistentFlags().BoolVar(&requireAll, "require-all", false, "only report terms present in every item")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "metadata provider: youtube or scrape (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
}

// session is one configured engine plus the resources it holds
type session struct {
	engine *engine.Engine
	cache  storage.ItemCache
}

func (s *session) Close() {
	s.engine.Close()
	if s.cache != nil {
		s.cache.Close()
	}
}

// openSession loads the env configuration, applies flag overrides and builds an engine
func openSession() (*session, error) {
	cfg := config.Load()
	if provider != "" {
		cfg.Catalog.Provider = provider
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	// quiet unless a level was asked for
	if logLevel != "" || os.Getenv("LOG_LEVEL") != "" {
		if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}
	entry := logger.WithField("service", "vidlex-cli")

	cache, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(cfg, entry.WithField("component", "engine"), engine.NewProvider(cfg, entry), cache)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	return &session{engine: eng, cache: cache}, nil
}

// buildRequest combines positional refs with the items file and flags
func buildRequest(refs []string) (engine.Request, error) {
	req := engine.Request{Refs: refs, Threshold: threshold, RequireAll: requireAll}
	if itemsFile != "" {
		items, err := loadItems(itemsFile)
		if err != nil {
			return req, err
		}
		req.Items = items
	}
	if len(req.Refs) == 0 && len(req.Items) == 0 {
		return req, fmt.Errorf("give at least one video reference or --items")
	}
	return req, nil
}

// loadItems reads a list of items from a JSON or YAML file
func loadItems(path string) ([]analysis.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var items []analysis.Item
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw []struct {
			ID          string   `yaml:"id"`
			Title       string   `yaml:"title"`
			Description string   `yaml:"description"`
			Tags        []string `yaml:"tags"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse items file %s: %w", path, err)
		}
		for _, r := range raw {
			items = append(items, analysis.Item{ID: r.ID, Title: r.Title, Description: r.Description, Tags: r.Tags})
		}
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse items file %s: %w", path, err)
		}
	}
	return items, nil
}

// run analyzes refs and returns the report. A report with failures but
// no analyzable items is returned together with the error.
func run(ctx context.Context, refs []string) (*engine.Report, error) {
	req, err := buildRequest(refs)
	if err != nil {
		return nil, err
	}

	s, err := openSession()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.engine.Analyze(ctx, req)
}
