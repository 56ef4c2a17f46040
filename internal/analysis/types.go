package analysis

import (
	"fmt"
	"strings"
)

// Item is one analyzed unit: a video's title, description and tag list.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Label returns the human-readable name used in provenance lists.
func (it Item) Label() string {
	if t := strings.TrimSpace(it.Title); t != "" {
		return t
	}
	return it.ID
}

// Channel identifies one of the text fields analyzed independently.
type Channel int

const (
	ChannelTitle Channel = iota
	ChannelTags
	ChannelDescription
)

// Channels lists every channel in report order.
var Channels = []Channel{ChannelTitle, ChannelTags, ChannelDescription}

func (c Channel) String() string {
	switch c {
	case ChannelTitle:
		return "title"
	case ChannelTags:
		return "tags"
	case ChannelDescription:
		return "description"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Channel) UnmarshalText(text []byte) error {
	ch, err := ParseChannel(string(text))
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

// ParseChannel converts a channel name back to its Channel value.
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title", "titles":
		return ChannelTitle, nil
	case "tags", "tag":
		return ChannelTags, nil
	case "description", "descriptions":
		return ChannelDescription, nil
	}
	return 0, fmt.Errorf("unknown channel %q", name)
}

// atomic reports whether values on this channel are compared whole.
func (c Channel) atomic() bool {
	return c == ChannelTags
}

// Config holds the analysis parameters.
type Config struct {
	// CommonThreshold is the minimum number of distinct items a term must
	// appear in to be common. Values below 2 are treated as 2.
	CommonThreshold int `json:"common_threshold" yaml:"common_threshold"`
	// RequireAll makes a term common only when every item contains it.
	RequireAll bool `json:"require_all" yaml:"require_all"`
	// MinTokenLength drops shorter free-text tokens (in runes).
	MinTokenLength int `json:"min_token_length" yaml:"min_token_length"`
	// Phrases merges multi-word phrases into one joined token.
	Phrases map[string]string `json:"phrases" yaml:"phrases"`
	// Variants collapses spelling variants onto one canonical spelling.
	Variants map[string]string `json:"variants" yaml:"variants"`
}

const (
	DefaultCommonThreshold = 2
	DefaultMinTokenLength  = 3
)

// DefaultConfig returns the lenient "at least two items" configuration.
func DefaultConfig() Config {
	return Config{
		CommonThreshold: DefaultCommonThreshold,
		MinTokenLength:  DefaultMinTokenLength,
	}
}

// threshold resolves the effective common threshold for total items.
func (c Config) threshold(total int) int {
	if c.RequireAll {
		if total < DefaultCommonThreshold {
			return DefaultCommonThreshold
		}
		return total
	}
	if c.CommonThreshold < DefaultCommonThreshold {
		return DefaultCommonThreshold
	}
	return c.CommonThreshold
}

func (c Config) minTokenLength() int {
	if c.MinTokenLength <= 0 {
		return DefaultMinTokenLength
	}
	return c.MinTokenLength
}

// Token is a normalized term together with the text it was read from.
type Token struct {
	Term    string `json:"term"`
	Surface string `json:"surface"`
}

// CommonTerm is a term shared by at least the threshold number of items.
type CommonTerm struct {
	Term    string   `json:"term"`
	Display string   `json:"display"`
	Members int      `json:"members"`
	Total   int      `json:"total"`
	Items   []string `json:"items"`
}

// ChannelResult is the overlap outcome for a single channel.
type ChannelResult struct {
	Channel       Channel           `json:"channel"`
	Common        []CommonTerm      `json:"common"`
	Unique        map[string]string `json:"unique"`
	DistinctTerms int               `json:"distinct_terms"`
	Percentage    float64           `json:"percentage"`
}

// IsCommon reports whether term is classified common on this channel.
func (r *ChannelResult) IsCommon(term string) bool {
	for _, c := range r.Common {
		if c.Term == term {
			return true
		}
	}
	return false
}

// UniqueTerms returns the unique terms sorted alphabetically.
func (r *ChannelResult) UniqueTerms() []string {
	return sortedKeys(r.Unique)
}

// ItemResult holds the per-item annotated fields and match score.
type ItemResult struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Score       int             `json:"score"`
	Title       AnnotatedText   `json:"title"`
	Tags        []AnnotatedText `json:"tags"`
	Description AnnotatedText   `json:"description"`
}

// RankedItem is one row of the relevance ranking.
type RankedItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// Result is the complete output of one analysis run.
type Result struct {
	TotalItems  int           `json:"total_items"`
	Threshold   int           `json:"threshold"`
	Title       ChannelResult `json:"title"`
	Tags        ChannelResult `json:"tags"`
	Description ChannelResult `json:"description"`
	Items       []ItemResult  `json:"items"`
	Ranking     []RankedItem  `json:"ranking"`
}

// Channel returns the result for c.
func (r *Result) Channel(c Channel) *ChannelResult {
	switch c {
	case ChannelTitle:
		return &r.Title
	case ChannelTags:
		return &r.Tags
	default:
		return &r.Description
	}
}
