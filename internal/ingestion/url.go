package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/jonathan/interview-prep/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the page could not be retrieved
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when the page could not be reduced to text
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// IngestURL fetches a job posting or resume URL. HTML pages are reduced to their main
// text with job-board selectors; PDFs and images linked directly are handed to FromBytes.
func IngestURL(ctx context.Context, urlStr string, opts *fetch.Options) (Content, error) {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}

	result, err := fetch.Page(ctx, urlStr, fetch.JobPosting(urlStr), opts)
	if err != nil {
		var ferr *fetch.Error
		if errors.As(err, &ferr) && ferr.Message == "content extraction failed" {
			return Content{}, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
		}
		return Content{}, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	if name, ok := binaryName(urlStr, result.ContentType); ok {
		if opts.Verbose {
			log.Printf("[INGEST] %s served as %s", urlStr, result.ContentType)
		}
		c := FromBytes(name, []byte(result.HTML))
		c.Source = urlStr
		return c, nil
	}

	text := CleanText(result.Text)
	if opts.Verbose {
		log.Printf("[INGEST] %s: %d chars of text", urlStr, len(text))
	}
	c := textOrUnsupported(urlStr, text)
	return c, nil
}

// binaryName maps a non-HTML response to a file name FromBytes understands.
func binaryName(urlStr, contentType string) (string, bool) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return "download.pdf", true
	case strings.Contains(ct, "image/png"):
		return "download.png", true
	case strings.Contains(ct, "image/jpeg"):
		return "download.jpg", true
	case strings.Contains(ct, "image/webp"):
		return "download.webp", true
	case strings.Contains(ct, "wordprocessingml"):
		return "download.docx", true
	}
	switch strings.ToLower(path.Ext(strings.SplitN(urlStr, "?", 2)[0])) {
	case ".pdf", ".docx", ".png", ".jpg", ".jpeg", ".webp":
		return path.Base(strings.SplitN(urlStr, "?", 2)[0]), true
	}
	return "", false
}
