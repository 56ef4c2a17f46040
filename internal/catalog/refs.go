package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// pathPrefixes are the watch-page path forms that carry the ID as the next segment
var pathPrefixes = []string{"/embed/", "/shorts/", "/live/", "/v/"}

// WatchURL returns the canonical watch page for a video ID
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExtractVideoID pulls the 11-character video ID out of a reference, which
// may be a bare ID or any of the common watch, embed, shorts and short-link
// URL forms.
func ExtractVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}
	if videoIDPattern.MatchString(ref) {
		return ref, nil
	}

	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}

	var candidate string
	switch host := normalizeHost(parsed.Hostname()); host {
	case "youtu.be":
		candidate = firstSegment(parsed.Path)
	case "youtube.com", "youtube-nocookie.com":
		if v := parsed.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(parsed.Path, prefix) {
				candidate = firstSegment(strings.TrimPrefix(parsed.Path, prefix))
				break
			}
		}
	default:
		return "", fmt.Errorf("%w: unsupported host in %q", ErrInvalidReference, ref)
	}

	if !videoIDPattern.MatchString(candidate) {
		return "", fmt.Errorf("%w: no video ID in %q", ErrInvalidReference, ref)
	}
	return candidate, nil
}

// ResolveRefs extracts IDs from refs in order, dropping blanks and
// duplicates. References without an ID are returned in rejected.
func ResolveRefs(refs []string) (ids []string, rejected []string) {
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		id, err := ExtractVideoID(ref)
		if err != nil {
			rejected = append(rejected, ref)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, rejected
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "m.", "music."} {
		if strings.HasPrefix(host, prefix) {
			return strings.TrimPrefix(host, prefix)
		}
	}
	return host
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
