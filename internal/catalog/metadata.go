// Package catalog resolves video references and fetches their metadata
// from a video platform.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/knowledge-engine/vidlex/internal/analysis"
)

var (
	ErrNotFound         = errors.New("video not found")
	ErrUnauthorized     = errors.New("access denied")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidReference = errors.New("invalid video reference")
)

// Metadata is what a provider knows about one video
type Metadata struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	ViewCount    int64     `json:"view_count"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	ChannelTitle string    `json:"channel_title,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Item converts the metadata into analyzer input. Tags are copied.
func (m *Metadata) Item() analysis.Item {
	tags := make([]string, len(m.Tags))
	copy(tags, m.Tags)
	return analysis.Item{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Tags:        tags,
	}
}

// Provider fetches metadata for a single video ID
type Provider interface {
	Fetch(ctx context.Context, videoID string) (*Metadata, error)
	Name() string
}

// Kind classifies an error for reporting
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
