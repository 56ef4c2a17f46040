package politeness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/knowledge-engine/vidlex/internal/config"
)

// Gate enforces respectful access to catalog web pages: a minimum delay
// between requests to the same host and robots.txt rules.
type Gate struct {
	config      config.PolitenessConfig
	logger      *logrus.Entry
	client      *http.Client
	domains     map[string]*DomainState
	robotsCache map[string]*RobotsEntry
	mu          sync.Mutex

	// Statistics
	stats Statistics
}

// DomainState tracks the request schedule of a single host
type DomainState struct {
	domain      string
	nextAllowed time.Time
	lastAccess  time.Time
}

// RobotsEntry caches robots.txt data
type RobotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

// Statistics holds gate statistics
type Statistics struct {
	TotalRequests      int64 `json:"total_requests"`
	DelayedRequests    int64 `json:"delayed_requests"`
	DisallowedRequests int64 `json:"disallowed_requests"`
	RobotsFetches      int64 `json:"robots_fetches"`
}

// NewGate creates a new politeness gate
func NewGate(cfg config.PolitenessConfig, logger *logrus.Entry) *Gate {
	if logger == nil {
		logger = logrus.WithField("component", "politeness")
	}
	return &Gate{
		config:      cfg,
		logger:      logger,
		client:      &http.Client{Timeout: 10 * time.Second},
		domains:     make(map[string]*DomainState),
		robotsCache: make(map[string]*RobotsEntry),
	}
}

// Wait blocks until a request to rawURL respects the host's minimum delay.
// Concurrent callers for the same host are spaced out one delay apart.
func (g *Gate) Wait(ctx context.Context, rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: %s", rawURL)
	}

	now := time.Now()
	g.mu.Lock()
	state, exists := g.domains[parsedURL.Host]
	if !exists {
		state = &DomainState{domain: parsedURL.Host}
		g.domains[parsedURL.Host] = state
	}
	slot := now
	if state.nextAllowed.After(now) {
		slot = state.nextAllowed
	}
	state.nextAllowed = slot.Add(g.config.DefaultMinDelay)
	state.lastAccess = now
	g.stats.TotalRequests++
	if slot.After(now) {
		g.stats.DelayedRequests++
	}
	g.mu.Unlock()

	waitTime := time.Until(slot)
	if waitTime <= 0 {
		return nil
	}

	g.logger.WithFields(logrus.Fields{
		"domain":    parsedURL.Host,
		"wait_time": waitTime,
	}).Debug("Waiting for politeness delay")

	timer := time.NewTimer(waitTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allowed checks if rawURL may be fetched according to robots.txt
func (g *Gate) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		return false, fmt.Errorf("invalid URL: %s", rawURL)
	}
	if !g.config.EnableRobotsCheck {
		return true, nil
	}

	robotsData, err := g.getRobotsData(ctx, parsedURL)
	if err != nil {
		g.logger.WithError(err).WithField("domain", parsedURL.Host).Warn("Failed to get robots.txt, allowing request")
		return true, nil
	}

	allowed := robotsData.TestAgent(parsedURL.RequestURI(), g.config.UserAgent)
	if !allowed {
		g.mu.Lock()
		g.stats.DisallowedRequests++
		g.mu.Unlock()
	}
	return allowed, nil
}

// GetStatistics returns current statistics
func (g *Gate) GetStatistics() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Cleanup drops host state and robots entries that have not been used
// within the robots cache duration.
func (g *Gate) Cleanup() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for domain, state := range g.domains {
		if time.Since(state.lastAccess) > g.config.RobotsCacheDuration && time.Now().After(state.nextAllowed) {
			delete(g.domains, domain)
			removed++
		}
	}
	for domain, entry := range g.robotsCache {
		if time.Since(entry.fetchTime) > g.config.RobotsCacheDuration {
			delete(g.robotsCache, domain)
			removed++
		}
	}
	return removed
}

// getRobotsData fetches and caches robots.txt data
func (g *Gate) getRobotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	domain := target.Host

	g.mu.Lock()
	entry, exists := g.robotsCache[domain]
	g.mu.Unlock()
	if exists && time.Since(entry.fetchTime) < g.config.RobotsCacheDuration {
		return entry.robots, nil
	}

	scheme := target.Scheme
	if scheme == "" {
		scheme = "https"
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", g.config.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read robots.txt: %w", err)
	}

	robotsData, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	g.mu.Lock()
	g.robotsCache[domain] = &RobotsEntry{robots: robotsData, fetchTime: time.Now()}
	g.stats.RobotsFetches++
	g.mu.Unlock()

	return robotsData, nil
}
