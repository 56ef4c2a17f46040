package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const DefaultScrapeBaseURL = "https://www.youtube.com"

// Gate is the politeness check a scraper goes through before each request
type Gate interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
	Wait(ctx context.Context, rawURL string) error
}

// PageScraper reads metadata from the public watch page. It needs no API
// key but only sees what the page exposes in its meta tags.
type PageScraper struct {
	BaseURL   string
	UserAgent string
	gate      Gate
	client    *http.Client
}

func NewPageScraper(baseURL, userAgent string, timeout time.Duration, gate Gate) *PageScraper {
	if baseURL == "" {
		baseURL = DefaultScrapeBaseURL
	}
	return &PageScraper{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		gate:      gate,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *PageScraper) Name() string {
	return "scrape"
}

func (s *PageScraper) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	pageURL := s.BaseURL + "/watch?v=" + url.QueryEscape(videoID)

	if s.gate != nil {
		allowed, err := s.gate.Allowed(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: disallowed by robots.txt", ErrUnauthorized)
		}
		if err := s.gate.Wait(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	meta := &Metadata{
		ID:        videoID,
		URL:       WatchURL(videoID),
		Tags:      []string{},
		FetchedAt: time.Now().UTC(),
	}
	if err := parseWatchPage(io.LimitReader(resp.Body, 8<<20), meta); err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}
	if meta.Title == "" {
		// Unavailable videos still render a page, just without video metadata.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	return meta, nil
}

// parseWatchPage fills meta from the page's meta tags using the streaming tokenizer
func parseWatchPage(body io.Reader, meta *Metadata) error {
	tokenizer := html.NewTokenizer(body)
	inTitle := false
	pageTitle := ""
	description := ""

	for {
		tokenType := tokenizer.Next()

		switch tokenType {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return tokenizer.Err()
			}
			if meta.Title == "" {
				meta.Title = strings.TrimSuffix(strings.TrimSpace(pageTitle), " - YouTube")
			}
			if meta.Description == "" {
				meta.Description = description
			}
			return nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "title":
				inTitle = tokenType == html.StartTagToken
			case "meta":
				key, content := metaAttrs(token)
				switch key {
				case "og:title":
					meta.Title = content
				case "og:description":
					meta.Description = content
				case "description":
					description = content
				case "keywords":
					meta.Tags = splitKeywords(content)
				case "interactionCount", "userInteractionCount":
					if views, err := strconv.ParseInt(content, 10, 64); err == nil {
						meta.ViewCount = views
					}
				case "datePublished", "uploadDate":
					if meta.PublishedAt.IsZero() {
						meta.PublishedAt = parsePageDate(content)
					}
				case "og:image":
					meta.Thumbnail = content
				case "author":
					meta.ChannelTitle = content
				}
			}

		case html.EndTagToken:
			if tokenizer.Token().Data == "title" {
				inTitle = false
			}

		case html.TextToken:
			if inTitle {
				pageTitle += tokenizer.Token().Data
			}
		}
	}
}

// metaAttrs returns the identifying key of a meta tag and its content
func metaAttrs(token html.Token) (key, content string) {
	for _, attr := range token.Attr {
		switch attr.Key {
		case "property", "name", "itemprop":
			if key == "" {
				key = attr.Val
			}
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	return key, content
}

func splitKeywords(content string) []string {
	tags := []string{}
	for _, part := range strings.Split(content, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func parsePageDate(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
