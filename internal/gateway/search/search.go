// Package search is the read-only web research and GCE announcement
// collaborator. It shares no state with tutor dispatch.
package search

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when no search credential is available.
var ErrNotConfigured = errors.New("SERPAPI_API_KEY not configured on server")

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query cannot be empty")

const maxResults = 20

type Query struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
	// News restricts the search to news articles.
	News bool `json:"news,omitempty"`
}

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
	Date    string `json:"date,omitempty"`
}

type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Normalize trims the query text and clamps NumResults to [1, 20], using
// def when unset.
func (q Query) Normalize(def int) (Query, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return q, ErrEmptyQuery
	}
	if q.NumResults <= 0 {
		q.NumResults = def
	}
	if q.NumResults <= 0 {
		q.NumResults = 5
	}
	if q.NumResults > maxResults {
		q.NumResults = maxResults
	}
	return q, nil
}

// dedupe keeps the first result per link, preserving order.
func dedupe(in []Result) []Result {
	seen := make(map[string]struct{}, len(in))
	out := make([]Result, 0, len(in))
	for _, r := range in {
		key := strings.TrimSpace(r.Link)
		if key == "" {
			key = strings.TrimSpace(r.Title)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
