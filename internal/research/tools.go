package research

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/retry"
)

// Tool names exposed to the model.
const (
	ToolWebSearch = "web_search"
	ToolFetchURL  = "fetch_url"
)

type searchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type fetchOutput struct {
	URL   string `json:"url"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Tools builds the web_search and fetch_url tools. Failures are reported to the model
// as {"error": ...} payloads and never end the loop.
func Tools(searcher Searcher, fetcher PageFetcher, policy retry.Policy, trace *Trace) []llm.Tool {
	return []llm.Tool{
		{
			Spec: llm.ToolSpec{
				Name:        ToolWebSearch,
				Description: "Search the web. Returns up to 6 results with title, snippet, url and source.",
				Params:      []llm.ToolParam{{Name: "query", Description: "Search query", Required: true}},
			},
			Call: func(ctx context.Context, call llm.ToolCall) string {
				query := strings.TrimSpace(call.Arg("query"))
				out := searchOutput{Query: query}
				if query == "" {
					out.Error = "Empty query"
					return marshal(out)
				}
				trace.addQuery(query)
				results, err := retry.Do(ctx, policy, func(ctx context.Context) ([]SearchResult, error) {
					return searcher.Search(ctx, query)
				})
				switch {
				case err != nil:
					out.Error = err.Error()
				case len(results) == 0:
					out.Error = "No results."
				default:
					out.Results = clip(results)
				}
				return marshal(out)
			},
		},
		{
			Spec: llm.ToolSpec{
				Name:        ToolFetchURL,
				Description: "Fetch a web page and return its readable text, truncated to 12000 characters.",
				Params:      []llm.ToolParam{{Name: "url", Description: "Absolute http(s) URL", Required: true}},
			},
			Call: func(ctx context.Context, call llm.ToolCall) string {
				url := strings.TrimSpace(call.Arg("url"))
				out := fetchOutput{URL: url}
				if url == "" {
					out.Error = "Empty url"
					return marshal(out)
				}
				trace.addFetch(url)
				text, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
					return fetcher.Fetch(ctx, url)
				})
				if err != nil {
					out.Error = err.Error()
				} else {
					out.Text = truncate(text, MaxPageText)
				}
				return marshal(out)
			},
		},
	}
}

// Trace records the tool activity of one research run.
type Trace struct {
	Queries []string `json:"queries"`
	Fetched []string `json:"fetched"`
}

func (t *Trace) addQuery(q string) {
	if t != nil {
		t.Queries = append(t.Queries, q)
	}
}

func (t *Trace) addFetch(u string) {
	if t != nil {
		t.Fetched = append(t.Fetched, u)
	}
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool output"}`
	}
	return string(b)
}
