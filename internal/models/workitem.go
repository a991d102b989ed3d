package models

import (
	"net/url"
	"strings"
)

// profileSegment is the URL path segment that precedes a profile identifier
const profileSegment = "/in/"

// ExtractWorkItem pulls the profile identifier out of a source URL.
// Supported forms:
//   - "https://www.linkedin.com/in/jane-doe-1a2b3c/" -> "jane-doe-1a2b3c"
//   - "linkedin.com/in/jane-doe?trk=feed"            -> "jane-doe"
//   - "jane-doe-1a2b3c"                              -> "jane-doe-1a2b3c" (already an identifier)
//
// Returns "" for blank input. The identifier is opaque; no further
// normalization beyond trimming is applied.
func ExtractWorkItem(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Prefer a real URL parse so query strings and fragments drop away
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if id := idFromPath(u.Path); id != "" {
			return id
		}
	}

	// Scheme-less input like "linkedin.com/in/jane-doe" never yields a Path
	// component above, so scan the raw string
	if id := idFromPath(raw); id != "" {
		return id
	}

	// No recognizable path segment: treat the whole string as the identifier
	if strings.ContainsAny(raw, "/?#") {
		return ""
	}
	return raw
}

func idFromPath(path string) string {
	idx := strings.Index(path, profileSegment)
	if idx < 0 {
		return ""
	}
	rest := path[idx+len(profileSegment):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// ExtractWorkItems maps source URLs to profile identifiers, preserving order
// and skipping entries that yield no identifier.
func ExtractWorkItems(rawURLs []string) []string {
	items := make([]string, 0, len(rawURLs))
	for _, raw := range rawURLs {
		if id := ExtractWorkItem(raw); id != "" {
			items = append(items, id)
		}
	}
	return items
}
