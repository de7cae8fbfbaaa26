package parsing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/ingestion"
	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	content ingestion.Content
	err     error
}

func (f fakeExtractor) Extract(_ context.Context, path string) (ingestion.Content, error) {
	c := f.content
	c.Source = path
	return c, f.err
}

type fakeModel struct {
	reply     string
	ocr       string
	err       error
	prompts   []string
	ocrBlobs  []llm.Blob
	jsonCalls int
}

func (m *fakeModel) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	m.jsonCalls++
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func (m *fakeModel) ExtractText(_ context.Context, _ string, blob llm.Blob, _ llm.ModelTier) (string, error) {
	m.ocrBlobs = append(m.ocrBlobs, blob)
	return m.ocr, m.err
}

func newTestParser(ex ingestion.Extractor, m Model) *Parser {
	p := NewParser(ex, m)
	p.Retry = retry.Policy{Attempts: 2, BaseDelay: time.Millisecond, Name: "test"}
	return p
}

const resumeReply = "```json\n" + `{
  "file_path": "somewhere/else.pdf",
  "doc_type": "Resume",
  "summary": "Backend engineer with Go experience",
  "key_points": ["5 years Go", "Postgres"],
  "entities": {
    "Contact Information": {"email": "jane@example.com", "phone": ["555-0100"]},
    "Skills": ["Go", "SQL"],
    "Empty": []
  },
  "raw_text_preview": ""
}` + "\n```"

func TestParse_TextDocument(t *testing.T) {
	text := "Jane Lee | jane@example.com\nBackend engineer"
	model := &fakeModel{reply: resumeReply}
	p := newTestParser(fakeExtractor{content: ingestion.Content{Kind: ingestion.KindText, Text: text}}, model)

	res, err := p.Parse(context.Background(), "inputs/jane_resume.txt")
	require.NoError(t, err)

	doc := res.Document
	assert.Equal(t, "inputs/jane_resume.txt", doc.FilePath, "file path is forced to the input path")
	assert.Equal(t, types.DocTypeResume, doc.DocType)
	assert.Equal(t, []string{"5 years Go", "Postgres"}, doc.KeyPoints)
	assert.Equal(t, []string{"jane@example.com", "555-0100"}, doc.Entities["Contact Information"])
	assert.Equal(t, []string{"Go", "SQL"}, doc.Entities["Skills"])
	assert.NotContains(t, doc.Entities, "Empty")
	assert.Equal(t, text, doc.RawTextPreview, "missing preview is rebuilt from the extracted text")
	assert.Equal(t, text, res.Text)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "File path: inputs/jane_resume.txt")
	assert.Contains(t, model.prompts[0], "Backend engineer")
}

func TestParse_PreviewCapped(t *testing.T) {
	long := strings.Repeat("a", types.PreviewLimit*2)
	model := &fakeModel{reply: `{"doc_type":"job_description","summary":"s","raw_text_preview":"` + long + `"}`}
	p := newTestParser(fakeExtractor{content: ingestion.Content{Kind: ingestion.KindText, Text: "Company: Acme"}}, model)

	res, err := p.Parse(context.Background(), "jd.txt")
	require.NoError(t, err)
	assert.Equal(t, types.PreviewLimit+1, len([]rune(res.Document.RawTextPreview)))
}

func TestParse_UnsupportedYieldsStub(t *testing.T) {
	model := &fakeModel{}
	p := newTestParser(fakeExtractor{content: ingestion.Content{Kind: ingestion.KindUnsupported}}, model)

	res, err := p.Parse(context.Background(), "archive.zip")
	require.NoError(t, err)
	assert.Equal(t, Stub("archive.zip"), res.Document)
	assert.Equal(t, UnsupportedSummary, res.Document.Summary)
	assert.Equal(t, 0, model.jsonCalls, "no model call for unreadable input")
}

func TestParse_MultimodalTranscribes(t *testing.T) {
	model := &fakeModel{
		ocr:   strings.Repeat("scanned resume text ", 2000),
		reply: `{"doc_type":"resume","summary":"scanned"}`,
	}
	content := ingestion.Content{Kind: ingestion.KindMultimodal, MIMEType: ingestion.MIMEPDF, Data: []byte("%PDF")}
	p := newTestParser(fakeExtractor{content: content}, model)

	res, err := p.Parse(context.Background(), "scan.pdf")
	require.NoError(t, err)

	require.Len(t, model.ocrBlobs, 1)
	assert.Equal(t, ingestion.MIMEPDF, model.ocrBlobs[0].MIMEType)
	assert.Len(t, []rune(res.Text), OCRLimit)
	assert.Equal(t, types.DocTypeResume, res.Document.DocType)
}

func TestParse_RecoveryFailure(t *testing.T) {
	model := &fakeModel{reply: "I could not read that document."}
	p := newTestParser(fakeExtractor{content: ingestion.Content{Kind: ingestion.KindText, Text: "x"}}, model)

	_, err := p.Parse(context.Background(), "cv.txt")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	var failure *contract.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "I could not read that document.", failure.Raw)

	stageErr := contract.NewStageError("stage1_resume", "resume parsing failed", err)
	assert.Equal(t, "I could not read that document.", stageErr.Result().RawOutput)
}

func TestParse_ModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	p := newTestParser(fakeExtractor{content: ingestion.Content{Kind: ingestion.KindText, Text: "x"}}, model)

	_, err := p.Parse(context.Background(), "cv.txt")
	require.Error(t, err)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 2, model.jsonCalls, "retried once")
}

func TestParse_ExtractionError(t *testing.T) {
	p := newTestParser(fakeExtractor{err: errors.New("file not found")}, &fakeModel{})

	_, err := p.Parse(context.Background(), "missing.pdf")
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "missing.pdf", exErr.Path)
}
