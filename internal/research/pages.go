package research

import (
	"context"

	"github.com/jonathan/interview-prep/internal/fetch"
)

// PageFetcher returns the readable text of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// WebFetcher fetches pages over HTTP, optionally falling back to a headless browser.
type WebFetcher struct {
	Options *fetch.Options
}

// Fetch returns at most MaxPageText runes of the page's main text.
func (w *WebFetcher) Fetch(ctx context.Context, url string) (string, error) {
	result, err := fetch.Page(ctx, url, fetch.CompanyPage(), w.Options)
	if err != nil {
		return "", err
	}
	return truncate(result.Text, MaxPageText), nil
}
