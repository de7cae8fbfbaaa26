package research

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Limits applied to tool output handed to the model.
const (
	MaxResults  = 6
	MaxSnippet  = 600
	MaxPageText = 12000
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// GoogleSearcher searches with the Google Programmable Search (Custom Search JSON) API.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher for the given API key and engine id.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("search API key and engine id are required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search returns up to MaxResults hits for query.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, SearchResult{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
			Source:  item.DisplayLink,
		})
	}
	return results, nil
}

// clip enforces the result-count and snippet limits and fills missing sources.
func clip(results []SearchResult) []SearchResult {
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	out := make([]SearchResult, len(results))
	for i, r := range results {
		r.Snippet = truncate(strings.TrimSpace(r.Snippet), MaxSnippet)
		if r.Source == "" {
			r.Source = domainOf(r.URL)
		}
		out[i] = r
	}
	return out
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
