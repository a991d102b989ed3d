// Package accounts owns the credential pool: parsing raw cookie blobs,
// selecting eligible records, and the CSV-backed store with usage writeback.
package accounts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// Cookie cells arrive in two shapes, depending on which tool exported the
// sheet: a dictionary literal ({"JSESSIONID": "...", "li_at": "..."}, often
// single-quoted) or a cookie-header string (JSESSIONID=...; li_at=...).
// ParseCookieBlob tries the structured form first and falls back to a
// key=value scan. It never panics on malformed input.

const (
	sessionCookieName = "JSESSIONID"
	authCookieName    = "li_at"
)

// ParseCookieBlob extracts the session tokens from a raw cookie cell.
// An error means nothing usable was found; incomplete token sets are
// returned without error and rejected later by eligibility checks.
func ParseCookieBlob(raw string) (models.SessionTokens, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.SessionTokens{}, fmt.Errorf("empty cookie blob")
	}

	if pairs, ok := parseStructured(raw); ok {
		return tokensFromPairs(pairs), nil
	}

	pairs := parsePairScan(raw)
	if len(pairs) == 0 {
		return models.SessionTokens{}, fmt.Errorf("unparseable cookie blob")
	}

	return tokensFromPairs(pairs), nil
}

// parseStructured attempts a JSON object parse, tolerating the
// single-quoted dictionary literals the sheet exports contain.
func parseStructured(raw string) (map[string]string, bool) {
	if !strings.HasPrefix(raw, "{") {
		return nil, false
	}

	var pairs map[string]string
	if err := json.Unmarshal([]byte(raw), &pairs); err == nil {
		return pairs, true
	}

	// Dictionary literals use single quotes; token values never do, so a
	// blanket replacement is safe here.
	if strings.Contains(raw, "'") {
		normalized := strings.ReplaceAll(raw, "'", `"`)
		if err := json.Unmarshal([]byte(normalized), &pairs); err == nil {
			return pairs, true
		}
	}

	return nil, false
}

// parsePairScan splits a cookie-header style blob into key/value pairs.
// Accepts ';' or ',' separated "key=value" entries, tolerating quotes and
// whitespace around either side.
func parsePairScan(raw string) map[string]string {
	pairs := make(map[string]string)

	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})
	for _, field := range fields {
		eq := strings.Index(field, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(field[:eq])
		value := strings.Trim(strings.TrimSpace(field[eq+1:]), `"'`)
		if key == "" || value == "" {
			continue
		}
		pairs[key] = value
	}

	return pairs
}

// tokensFromPairs picks the two required cookies out of a parsed pair set,
// matching names case-insensitively.
func tokensFromPairs(pairs map[string]string) models.SessionTokens {
	var tokens models.SessionTokens
	for key, value := range pairs {
		switch {
		case strings.EqualFold(key, sessionCookieName):
			tokens.SessionID = strings.Trim(value, `"`)
		case strings.EqualFold(key, authCookieName):
			tokens.AuthToken = strings.Trim(value, `"`)
		}
	}
	return tokens
}
