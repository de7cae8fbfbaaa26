// Package ingestion turns an input path or URL into text the parsing stage can read.
// Text formats are extracted locally; scanned PDFs and images are returned as blobs for OCR.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/interview-prep/internal/fetch"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Kind classifies extracted content.
type Kind string

const (
	// KindText means Content.Text holds the document text.
	KindText Kind = "text"
	// KindMultimodal means the document must be transcribed by a model from Content.Data.
	KindMultimodal Kind = "multimodal"
	// KindUnsupported means nothing usable could be read.
	KindUnsupported Kind = "unsupported"
)

// ScannedThreshold is the minimum count of non-space characters for a PDF's embedded
// text to be trusted. Below it the PDF is treated as scanned.
const ScannedThreshold = 200

// MIME types handed to the model for transcription.
const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWEBP = "image/webp"
)

// Content is the result of extracting one input.
type Content struct {
	Source   string
	Kind     Kind
	Text     string
	MIMEType string
	Data     []byte
}

// Extractor reads an input path or URL.
type Extractor interface {
	Extract(ctx context.Context, path string) (Content, error)
}

// FileExtractor extracts local files and http(s) URLs.
type FileExtractor struct {
	Fetch *fetch.Options
}

// NewFileExtractor returns an extractor using the given fetch options for URLs.
func NewFileExtractor(opts *fetch.Options) *FileExtractor {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	return &FileExtractor{Fetch: opts}
}

// Extract reads path. A missing file is an error; an unreadable or unknown format is
// KindUnsupported with a nil error.
func (e *FileExtractor) Extract(ctx context.Context, path string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	if fetch.IsURL(path) {
		return IngestURL(ctx, path, e.Fetch)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Content{}, fmt.Errorf("file not found: %w", err)
		}
		return Content{}, fmt.Errorf("failed to read file: %w", err)
	}
	return FromBytes(path, data), nil
}

// FromBytes extracts content from data, choosing a reader by the extension of name.
func FromBytes(name string, data []byte) Content {
	unsupported := Content{Source: name, Kind: KindUnsupported}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", "":
		return textOrUnsupported(name, CleanText(string(data)))
	case ".pdf":
		text, err := pdfText(data)
		if err != nil || countNonSpace(text) < ScannedThreshold {
			if len(data) == 0 {
				return unsupported
			}
			return Content{Source: name, Kind: KindMultimodal, MIMEType: MIMEPDF, Data: data}
		}
		return Content{Source: name, Kind: KindText, Text: CleanText(text), MIMEType: MIMEPDF}
	case ".docx":
		text, err := docxText(data)
		if err != nil {
			return unsupported
		}
		return textOrUnsupported(name, text)
	case ".html", ".htm":
		sel := fetch.JobPosting("")
		text, err := fetch.ExtractMainText(string(data), sel.Content, sel.Noise...)
		if err != nil {
			return unsupported
		}
		return textOrUnsupported(name, CleanText(text))
	case ".png":
		return imageContent(name, MIMEPNG, data)
	case ".jpg", ".jpeg":
		return imageContent(name, MIMEJPEG, data)
	case ".webp":
		return imageContent(name, MIMEWEBP, data)
	}
	return unsupported
}

func textOrUnsupported(name, text string) Content {
	if strings.TrimSpace(text) == "" {
		return Content{Source: name, Kind: KindUnsupported}
	}
	return Content{Source: name, Kind: KindText, Text: text, MIMEType: "text/plain"}
}

func imageContent(name, mimeType string, data []byte) Content {
	if len(data) == 0 {
		return Content{Source: name, Kind: KindUnsupported}
	}
	return Content{Source: name, Kind: KindMultimodal, MIMEType: mimeType, Data: data}
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	raw := doc.Editable().GetContent()
	raw = docxParagraphEnd.ReplaceAllString(raw, "\n")
	raw = docxTab.ReplaceAllString(raw, "\t")
	raw = xmlTag.ReplaceAllString(raw, "")
	return CleanText(unescapeXML(raw)), nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
