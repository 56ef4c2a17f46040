package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// thumbnailPreference lists thumbnail sizes from most to least preferred
var thumbnailPreference = []string{"high", "standard", "maxres", "medium", "default"}

// YouTubeClient fetches video metadata from the YouTube Data API v3
type YouTubeClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewYouTubeClient(baseURL, apiKey string, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	return &YouTubeClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *YouTubeClient) Name() string {
	return "youtube"
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			PublishedAt  string   `json:"publishedAt"`
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ChannelTitle string   `json:"channelTitle"`
			Tags         []string `json:"tags"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (c *YouTubeClient) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnauthorized)
	}

	query := url.Values{}
	query.Set("part", "snippet,statistics")
	query.Set("id", videoID)
	query.Set("key", c.APIKey)
	endpoint := c.BaseURL + "/videos?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, body)
	}

	var decoded videoListResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	item := decoded.Items[0]
	meta := &Metadata{
		ID:           videoID,
		URL:          WatchURL(videoID),
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Tags:         item.Snippet.Tags,
		ChannelTitle: item.Snippet.ChannelTitle,
		FetchedAt:    time.Now().UTC(),
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	if views, err := strconv.ParseInt(item.Statistics.ViewCount, 10, 64); err == nil {
		meta.ViewCount = views
	}
	if published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		meta.PublishedAt = published
	}
	for _, size := range thumbnailPreference {
		if thumb, ok := item.Snippet.Thumbnails[size]; ok && thumb.URL != "" {
			meta.Thumbnail = thumb.URL
			break
		}
	}
	return meta, nil
}

// classifyAPIError maps a non-200 API response onto the catalog error kinds
func classifyAPIError(status int, body []byte) error {
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		for _, e := range apiErr.Error.Errors {
			switch e.Reason {
			case "quotaExceeded", "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded":
				return fmt.Errorf("%w: %s", ErrRateLimited, message)
			}
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	default:
		return fmt.Errorf("received non-200 status code %d: %s", status, message)
	}
}
