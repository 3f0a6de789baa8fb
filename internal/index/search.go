package index

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultSearchLimit = 20
	snippetRadius      = 60
	ellipsis           = "..."
)

// SearchResult is one chapter matching a search query.
type SearchResult struct {
	Path    string `json:"path"`
	ID      string `json:"id"`
	Order   int    `json:"order"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

// snippet cuts body around the first case-insensitive occurrence of query.
// Without a match it returns the opening of body.
func snippet(body, query string) string {
	body = strings.Join(strings.Fields(body), " ")
	at := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if query == "" || at < 0 {
		at = 0
	}
	start := max(at-snippetRadius, 0)
	end := min(at+len(query)+snippetRadius, len(body))
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	out := body[start:end]
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(body) {
		out += ellipsis
	}
	return out
}
