package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/catalog"
	"github.com/knowledge-engine/vidlex/internal/config"
	"github.com/knowledge-engine/vidlex/internal/lexicon"
	"github.com/knowledge-engine/vidlex/internal/politeness"
	"github.com/knowledge-engine/vidlex/internal/storage"
)

// ErrNoItems is returned when a request leaves nothing to analyze
var ErrNoItems = errors.New("no analyzable items")

// Request is one analysis run: video references to fetch plus any
// inline items supplied directly by the caller.
type Request struct {
	Refs       []string        `json:"refs"`
	Items      []analysis.Item `json:"items,omitempty"`
	Threshold  int             `json:"threshold,omitempty"`
	RequireAll bool            `json:"require_all,omitempty"`
}

// Failure records a reference that could not be turned into an item
type Failure struct {
	Ref     string `json:"ref"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report is the outcome of one analysis run
type Report struct {
	RunID     uuid.UUID           `json:"run_id"`
	CreatedAt time.Time           `json:"created_at"`
	Videos    []*catalog.Metadata `json:"videos"`
	Failures  []Failure           `json:"failures"`
	Result    *analysis.Result    `json:"result,omitempty"`
}

// Engine orchestrates fetching, caching and analysis
type Engine struct {
	Config   *config.Config
	Logger   *logrus.Entry
	Provider catalog.Provider
	Cache    storage.ItemCache

	stopwords lexicon.Set
	tables    lexicon.Tables
	pool      *ants.Pool

	// Stats
	mu    sync.RWMutex
	stats EngineStats
}

type EngineStats struct {
	Runs          int64     `json:"runs"`
	VideosFetched int64     `json:"videos_fetched"`
	CacheHits     int64     `json:"cache_hits"`
	Failures      int64     `json:"failures"`
	LastError     string    `json:"last_error,omitempty"`
	StartTime     time.Time `json:"start_time"`
}

// NewEngine wires an engine around a provider and an optional cache.
// A nil cache disables caching.
func NewEngine(cfg *config.Config, logger *logrus.Entry, provider catalog.Provider, cache storage.ItemCache) (*Engine, error) {
	if logger == nil {
		logger = logrus.WithField("component", "engine")
	}
	if provider == nil {
		return nil, fmt.Errorf("engine requires a catalog provider")
	}

	stopwords, err := lexicon.Union(lexicon.Embedded{}, cfg.Analysis.Languages)
	if err != nil {
		logger.WithError(err).Warn("Some stopword languages could not be loaded")
	}

	tables := lexicon.DefaultTables()
	if cfg.Analysis.TablesFile != "" {
		extra, err := lexicon.LoadTables(cfg.Analysis.TablesFile)
		if err != nil {
			return nil, err
		}
		tables = tables.Merge(extra)
	}

	size := cfg.Catalog.MaxConcurrency
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch pool: %w", err)
	}

	return &Engine{
		Config:    cfg,
		Logger:    logger,
		Provider:  provider,
		Cache:     cache,
		stopwords: stopwords,
		tables:    tables,
		pool:      pool,
		stats:     EngineStats{StartTime: time.Now()},
	}, nil
}

// NewProvider builds the catalog provider selected by the configuration.
// The scraper goes through a politeness gate; the API client does not.
func NewProvider(cfg *config.Config, logger *logrus.Entry) catalog.Provider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	switch cfg.Catalog.Provider {
	case "scrape":
		gate := politeness.NewGate(cfg.Politeness, logger.WithField("component", "politeness"))
		return catalog.NewPageScraper(cfg.Catalog.BaseURL, cfg.Politeness.UserAgent, cfg.Catalog.RequestTimeout, gate)
	default:
		return catalog.NewYouTubeClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.RequestTimeout)
	}
}

// Analyze resolves and fetches every reference in req, then runs the
// overlap analysis over the fetched videos followed by the inline items.
// When nothing is left to analyze the partial report is returned together
// with ErrNoItems.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Videos:    []*catalog.Metadata{},
		Failures:  []Failure{},
	}
	logger := e.Logger.WithField("run_id", report.RunID.String())

	ids, rejected := catalog.ResolveRefs(req.Refs)
	submitted := submittedRefs(req.Refs)
	for _, ref := range rejected {
		report.Failures = append(report.Failures, Failure{
			Ref:     ref,
			Kind:    catalog.Kind(catalog.ErrInvalidReference),
			Message: "no video ID found in reference",
		})
	}

	outcomes := e.fetchAll(ctx, ids)
	for i, out := range outcomes {
		if out.err != nil {
			report.Failures = append(report.Failures, Failure{
				Ref:     submitted[ids[i]],
				Kind:    catalog.Kind(out.err),
				Message: out.err.Error(),
			})
			logger.WithError(out.err).WithField("video_id", ids[i]).Warn("Failed to fetch video")
			continue
		}
		report.Videos = append(report.Videos, out.meta)
	}

	items := make([]analysis.Item, 0, len(report.Videos)+len(req.Items))
	for _, meta := range report.Videos {
		items = append(items, meta.Item())
	}
	items = append(items, req.Items...)

	e.recordRun(len(report.Failures), outcomes)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if len(items) == 0 {
		e.setLastError(ErrNoItems)
		return report, fmt.Errorf("%w: %d of %d references failed", ErrNoItems, len(report.Failures), len(ids)+len(rejected))
	}

	report.Result = analysis.NewAnalyzer(e.analysisConfig(req), e.stopwords).Analyze(items)

	logger.WithFields(logrus.Fields{
		"items":    len(items),
		"failures": len(report.Failures),
		"title":    len(report.Result.Title.Common),
		"tags":     len(report.Result.Tags.Common),
		"desc":     len(report.Result.Description.Common),
	}).Info("Analysis complete")

	return report, nil
}

// submittedRefs maps each resolved video ID to the first reference that
// named it.
func submittedRefs(refs []string) map[string]string {
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		id, err := catalog.ExtractVideoID(ref)
		if err != nil {
			continue
		}
		if _, ok := out[id]; !ok {
			out[id] = ref
		}
	}
	return out
}

// analysisConfig applies the per-request overrides on top of the configured defaults
func (e *Engine) analysisConfig(req Request) analysis.Config {
	cfg := analysis.Config{
		CommonThreshold: e.Config.Analysis.CommonThreshold,
		RequireAll:      e.Config.Analysis.RequireAll || req.RequireAll,
		MinTokenLength:  e.Config.Analysis.MinTokenLength,
		Phrases:         e.tables.Phrases,
		Variants:        e.tables.Variants,
	}
	if req.Threshold > 0 {
		cfg.CommonThreshold = req.Threshold
	}
	return cfg
}

type fetchOutcome struct {
	meta   *catalog.Metadata
	cached bool
	err    error
}

// fetchAll fetches ids on the worker pool. Outcomes keep the order of ids.
func (e *Engine) fetchAll(ctx context.Context, ids []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = e.fetch(ctx, id)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = fetchOutcome{err: fmt.Errorf("failed to schedule fetch: %w", err)}
		}
	}

	wg.Wait()
	return outcomes
}

// fetch reads through the cache. Entries older than the storage TTL are refetched.
func (e *Engine) fetch(ctx context.Context, id string) fetchOutcome {
	if err := ctx.Err(); err != nil {
		return fetchOutcome{err: err}
	}

	if e.Cache != nil {
		meta, err := e.Cache.Get(id)
		switch {
		case err == nil && e.fresh(meta):
			return fetchOutcome{meta: meta, cached: true}
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			e.Logger.WithError(err).WithField("video_id", id).Warn("Cache read failed")
		}
	}

	meta, err := e.Provider.Fetch(ctx, id)
	if err != nil {
		return fetchOutcome{err: err}
	}

	if e.Cache != nil {
		if err := e.Cache.Save(meta); err != nil {
			e.Logger.WithError(err).WithField("video_id", id).Error("Failed to save metadata")
		}
	}
	return fetchOutcome{meta: meta}
}

func (e *Engine) fresh(meta *catalog.Metadata) bool {
	ttl := e.Config.Storage.TTL
	return ttl <= 0 || time.Since(meta.FetchedAt) < ttl
}

func (e *Engine) recordRun(failures int, outcomes []fetchOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Runs++
	e.stats.Failures += int64(failures)
	for _, out := range outcomes {
		switch {
		case out.err != nil:
			e.stats.LastError = out.err.Error()
		case out.cached:
			e.stats.CacheHits++
		default:
			e.stats.VideosFetched++
		}
	}
}

func (e *Engine) setLastError(err error) {
	e.mu.Lock()
	e.stats.LastError = err.Error()
	e.mu.Unlock()
}

// Stats returns a snapshot of the engine statistics
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Close releases the worker pool. The cache is owned by the caller.
func (e *Engine) Close() {
	e.pool.Release()
}
