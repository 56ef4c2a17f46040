package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/catalog"
	"github.com/knowledge-engine/vidlex/internal/config"
	"github.com/knowledge-engine/vidlex/internal/engine"
	"github.com/knowledge-engine/vidlex/internal/storage"
)

func init() {
	logrus.SetLevel(logrus.WarnLevel)
}

// Mocks

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Fetch(ctx context.Context, videoID string) (*catalog.Metadata, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Metadata), args.Error(1)
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Save(meta *catalog.Metadata) error {
	args := m.Called(meta)
	return args.Error(0)
}

func (m *MockCache) Get(videoID string) (*catalog.Metadata, error) {
	args := m.Called(videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Metadata), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func video(id, title string, tags []string, description string) *catalog.Metadata {
	return &catalog.Metadata{
		ID:          id,
		URL:         catalog.WatchURL(id),
		Title:       title,
		Tags:        tags,
		Description: description,
		FetchedAt:   time.Now(),
	}
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Analysis.Languages = []string{"english"}
	cfg.Catalog.MaxConcurrency = 3
	cfg.Storage.TTL = time.Hour
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, provider catalog.Provider, cache storage.ItemCache) *engine.Engine {
	t.Helper()
	eng, err := engine.NewEngine(cfg, logrus.New().WithField("test", "engine"), provider, cache)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func TestNewEngine_RequiresProvider(t *testing.T) {
	_, err := engine.NewEngine(testConfig(), nil, nil, nil)
	assert.Error(t, err)
}

func TestNewEngine_BadTablesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.TablesFile = "/does/not/exist.yaml"
	_, err := engine.NewEngine(cfg, nil, new(MockProvider), nil)
	assert.Error(t, err)
}

func TestEngine_Analyze(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Fetch", mock.Anything, "aaaaaaaaaaa").Return(video("aaaaaaaaaaa", "Cat video", []string{"cats"}, "Funny cat"), nil)
	provider.On("Fetch", mock.Anything, "bbbbbbbbbbb").Return(video("bbbbbbbbbbb", "Cat video clip", []string{"cats"}, "Another cat"), nil)
	provider.On("Fetch", mock.Anything, "ccccccccccc").Return(nil, fmt.Errorf("%w: ccccccccccc", catalog.ErrNotFound))

	eng := newEngine(t, testConfig(), provider, nil)

	report, err := eng.Analyze(context.Background(), engine.Request{
		Refs: []string{
			"https://www.youtube.com/watch?v=aaaaaaaaaaa",
			"https://youtu.be/bbbbbbbbbbb",
			"ccccccccccc",
			"https://example.com/nope",
		},
		Items: []analysis.Item{{ID: "inline", Title: "Dog video"}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.RunID.String())
	require.Len(t, report.Videos, 2)
	assert.Equal(t, "aaaaaaaaaaa", report.Videos[0].ID)
	assert.Equal(t, "bbbbbbbbbbb", report.Videos[1].ID)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, engine.Failure{Ref: "https://example.com/nope", Kind: "invalid_reference", Message: "no video ID found in reference"}, report.Failures[0])
	assert.Equal(t, "ccccccccccc", report.Failures[1].Ref)
	assert.Equal(t, "not_found", report.Failures[1].Kind)

	require.NotNil(t, report.Result)
	assert.Equal(t, 3, report.Result.TotalItems)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "inline"}, []string{
		report.Result.Items[0].ID, report.Result.Items[1].ID, report.Result.Items[2].ID,
	})
	require.NotEmpty(t, report.Result.Title.Common)
	assert.Equal(t, "video", report.Result.Title.Common[0].Term)
	assert.Equal(t, 3, report.Result.Title.Common[0].Members)
	assert.True(t, report.Result.Tags.IsCommon("cats"))

	stats := eng.Stats()
	assert.Equal(t, int64(1), stats.Runs)
	assert.Equal(t, int64(2), stats.VideosFetched)
	assert.Equal(t, int64(2), stats.Failures)
	provider.AssertExpectations(t)
}

func TestEngine_AnalyzeKeepsInputOrderUnderConcurrency(t *testing.T) {
	provider := new(MockProvider)
	ids := []string{"aaaaaaaaaa1", "aaaaaaaaaa2", "aaaaaaaaaa3", "aaaaaaaaaa4", "aaaaaaaaaa5", "aaaaaaaaaa6"}
	for i, id := range ids {
		delay := time.Duration(len(ids)-i) * 5 * time.Millisecond
		provider.On("Fetch", mock.Anything, id).After(delay).Return(video(id, "shared title", nil, ""), nil)
	}

	eng := newEngine(t, testConfig(), provider, nil)

	report, err := eng.Analyze(context.Background(), engine.Request{Refs: ids})
	require.NoError(t, err)

	got := make([]string, len(report.Videos))
	for i, v := range report.Videos {
		got[i] = v.ID
	}
	assert.Equal(t, ids, got)
}

func TestEngine_AnalyzeThresholdOverride(t *testing.T) {
	provider := new(MockProvider)
	eng := newEngine(t, testConfig(), provider, nil)

	items := []analysis.Item{
		{ID: "a", Tags: []string{"x", "y"}},
		{ID: "b", Tags: []string{"x", "y"}},
		{ID: "c", Tags: []string{"x"}},
	}

	report, err := eng.Analyze(context.Background(), engine.Request{Items: items})
	require.NoError(t, err)
	assert.Len(t, report.Result.Tags.Common, 2)

	report, err = eng.Analyze(context.Background(), engine.Request{Items: items, RequireAll: true})
	require.NoError(t, err)
	assert.Len(t, report.Result.Tags.Common, 1)

	report, err = eng.Analyze(context.Background(), engine.Request{Items: items, Threshold: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Result.Threshold)
	assert.Len(t, report.Result.Tags.Common, 1)

	provider.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestEngine_AnalyzeNoItems(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Fetch", mock.Anything, "aaaaaaaaaaa").Return(nil, catalog.ErrRateLimited)

	eng := newEngine(t, testConfig(), provider, nil)

	report, err := eng.Analyze(context.Background(), engine.Request{Refs: []string{"aaaaaaaaaaa"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrNoItems))
	require.NotNil(t, report)
	assert.Nil(t, report.Result)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "rate_limited", report.Failures[0].Kind)
	assert.Contains(t, eng.Stats().LastError, "no analyzable items")

	_, err = eng.Analyze(context.Background(), engine.Request{})
	assert.ErrorIs(t, err, engine.ErrNoItems)
}

func TestEngine_AnalyzeSingleItem(t *testing.T) {
	eng := newEngine(t, testConfig(), new(MockProvider), nil)

	report, err := eng.Analyze(context.Background(), engine.Request{Items: []analysis.Item{{Title: "alone here"}}})
	require.NoError(t, err)
	assert.Empty(t, report.Result.Title.Common)
	assert.Len(t, report.Result.Items, 1)
}

func TestEngine_CacheReadThrough(t *testing.T) {
	provider := new(MockProvider)
	cache := new(MockCache)

	fresh := video("aaaaaaaaaaa", "cached title", nil, "")
	stale := video("bbbbbbbbbbb", "stale title", nil, "")
	stale.FetchedAt = time.Now().Add(-2 * time.Hour)
	refreshed := video("bbbbbbbbbbb", "refreshed title", nil, "")
	missing := video("ccccccccccc", "fetched title", nil, "")

	cache.On("Get", "aaaaaaaaaaa").Return(fresh, nil)
	cache.On("Get", "bbbbbbbbbbb").Return(stale, nil)
	cache.On("Get", "ccccccccccc").Return(nil, storage.ErrNotFound)
	cache.On("Save", refreshed).Return(nil)
	cache.On("Save", missing).Return(errors.New("disk full"))

	provider.On("Fetch", mock.Anything, "bbbbbbbbbbb").Return(refreshed, nil)
	provider.On("Fetch", mock.Anything, "ccccccccccc").Return(missing, nil)

	eng := newEngine(t, testConfig(), provider, cache)

	report, err := eng.Analyze(context.Background(), engine.Request{Refs: []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}})
	require.NoError(t, err)

	require.Len(t, report.Videos, 3)
	assert.Equal(t, "cached title", report.Videos[0].Title)
	assert.Equal(t, "refreshed title", report.Videos[1].Title)
	assert.Equal(t, "fetched title", report.Videos[2].Title)
	assert.Empty(t, report.Failures)

	provider.AssertNotCalled(t, "Fetch", mock.Anything, "aaaaaaaaaaa")
	cache.AssertExpectations(t)
	provider.AssertExpectations(t)

	stats := eng.Stats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.VideosFetched)
}

func TestEngine_AnalyzeCanceled(t *testing.T) {
	var calls int32
	provider := new(MockProvider)
	provider.On("Fetch", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		atomic.AddInt32(&calls, 1)
	}).Return(video("aaaaaaaaaaa", "t", nil, ""), nil)

	eng := newEngine(t, testConfig(), provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := eng.Analyze(ctx, engine.Request{Refs: []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Nil(t, report.Result)
	assert.Zero(t, atomic.LoadInt32(&calls))
	for _, f := range report.Failures {
		assert.Equal(t, "canceled", f.Kind)
	}
}

func TestEngine_FailureKeepsSubmittedRef(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Fetch", mock.Anything, "aaaaaaaaaaa").Return(video("aaaaaaaaaaa", "Cat video", nil, ""), nil)
	provider.On("Fetch", mock.Anything, "ddddddddddd").Return(nil, fmt.Errorf("%w: ddddddddddd", catalog.ErrRateLimited))

	eng := newEngine(t, testConfig(), provider, nil)

	report, err := eng.Analyze(context.Background(), engine.Request{
		Refs: []string{
			"aaaaaaaaaaa",
			"https://youtu.be/ddddddddddd",
			"https://www.youtube.com/watch?v=ddddddddddd",
		},
	})
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "https://youtu.be/ddddddddddd", report.Failures[0].Ref)
	assert.Equal(t, "rate_limited", report.Failures[0].Kind)
	provider.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestNewProvider(t *testing.T) {
	cfg := testConfig()

	cfg.Catalog.Provider = "youtube"
	assert.Equal(t, "youtube", engine.NewProvider(cfg, nil).Name())

	cfg.Catalog.Provider = "scrape"
	assert.Equal(t, "scrape", engine.NewProvider(cfg, nil).Name())
}
