// Package parsing implements Stage 1: reading an input document and summarizing it into
// a ParsedDocument with a language model.
package parsing

import (
	"context"
	"log"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/ingestion"
	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/prompts"
	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
)

// UnsupportedSummary is the summary of a stub document.
const UnsupportedSummary = "Unsupported or empty content."

// OCRLimit caps the transcription of scanned documents, in runes.
const OCRLimit = 25000

// MaxPromptText caps how much extracted text is sent to the model, in runes.
const MaxPromptText = 60000

// Model is the subset of llm.Client that Stage 1 uses.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	ExtractText(ctx context.Context, prompt string, blob llm.Blob, tier llm.ModelTier) (string, error)
}

// Parser runs Stage 1 for one input at a time.
type Parser struct {
	Extractor ingestion.Extractor
	Model     Model
	Retry     retry.Policy
	Verbose   bool
}

// NewParser returns a Parser with the default retry policy.
func NewParser(extractor ingestion.Extractor, model Model) *Parser {
	return &Parser{
		Extractor: extractor,
		Model:     model,
		Retry:     retry.DefaultPolicy("stage1 model call"),
	}
}

// Result is the Stage 1 output for one input.
type Result struct {
	Document *types.ParsedDocument
	Metadata *ingestion.Metadata
	// Text is the full extracted text, kept for the retrieval store.
	Text string
	// Raw is the model reply the document was recovered from.
	Raw string
}

// Parse extracts path and asks the model to summarize it. Unreadable inputs yield a stub
// document rather than an error. Model failures are *APICallError; unrecoverable replies
// are *ParseError wrapping a *contract.Failure.
func (p *Parser) Parse(ctx context.Context, path string) (*Result, error) {
	content, err := p.Extractor.Extract(ctx, path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Cause: err}
	}
	meta := ingestion.NewMetadata(content)

	text := content.Text
	switch content.Kind {
	case ingestion.KindMultimodal:
		text, err = p.transcribe(ctx, content)
		if err != nil {
			return nil, err
		}
		meta.Chars = len([]rune(text))
	case ingestion.KindUnsupported:
		text = ""
	}

	if p.Verbose {
		log.Printf("[PARSE] %s kind=%s chars=%d", path, content.Kind, len(text))
	}

	if text == "" {
		return &Result{Document: Stub(path), Metadata: meta}, nil
	}

	prompt, err := prompts.Render(prompts.IntakeFile, "parse-document", map[string]string{
		"FilePath": path,
		"Text":     ingestion.Truncate(text, MaxPromptText),
	})
	if err != nil {
		return nil, err
	}

	raw, err := retry.Do(ctx, p.Retry, func(ctx context.Context) (string, error) {
		return p.Model.GenerateJSON(ctx, prompt, llm.TierStandard)
	})
	if err != nil {
		return nil, &APICallError{Message: "failed to parse " + path, Cause: err}
	}

	obj, err := contract.Recover(raw)
	if err != nil {
		return nil, &ParseError{Message: "model reply for " + path + " is not a JSON object", Cause: err}
	}

	doc := finalize(DocumentFromRecord(obj), path, text)
	return &Result{Document: doc, Metadata: meta, Text: text, Raw: raw}, nil
}

func (p *Parser) transcribe(ctx context.Context, content ingestion.Content) (string, error) {
	prompt, err := prompts.Get(prompts.IntakeFile, "ocr-document")
	if err != nil {
		return "", err
	}
	blob := llm.Blob{MIMEType: content.MIMEType, Data: content.Data}

	text, err := retry.Do(ctx, p.Retry, func(ctx context.Context) (string, error) {
		return p.Model.ExtractText(ctx, prompt, blob, llm.TierLite)
	})
	if err != nil {
		return "", &APICallError{Message: "failed to transcribe " + content.Source, Cause: err}
	}
	return ingestion.Truncate(ingestion.CleanText(text), OCRLimit), nil
}
