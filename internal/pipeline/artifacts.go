package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/interview-prep/internal/rendering"
)

// Output keys used in Result.Outputs.
const (
	OutputResume   = "agent1_resume"
	OutputJD       = "agent1_jd"
	OutputNotes    = "agent1_notes"
	OutputCombined = "agent1_combined"
	OutputResearch = "agent2"
	OutputQA       = "agent3"
	OutputPDF      = "pdf"
	OutputResult   = "run_result"
	outputRoundPDF = "pdf_round_"
)

// RunFiles names the artifacts of one run inside <output-dir>/<run_id>/.
type RunFiles struct {
	Dir   string
	RunID string
}

// NewRunFiles returns the file layout for runID under outputDir.
func NewRunFiles(outputDir, runID string) RunFiles {
	return RunFiles{Dir: filepath.Join(outputDir, runID), RunID: runID}
}

func (f RunFiles) name(prefix, ext string) string {
	return filepath.Join(f.Dir, fmt.Sprintf("%s_%s%s", prefix, f.RunID, ext))
}

// Resume is the Stage 1 resume document.
func (f RunFiles) Resume() string { return f.name("agent1_resume_out", ".json") }

// JD is the Stage 1 job description document.
func (f RunFiles) JD() string { return f.name("agent1_jd_out", ".json") }

// Notes is the Stage 1 interview notes document.
func (f RunFiles) Notes() string { return f.name("agent1_notes_out", ".json") }

// Combined is the Stage 1 artifact handed to Stage 3.
func (f RunFiles) Combined() string { return f.name("agent1_combined_out", ".json") }

// Research is the Stage 2 report.
func (f RunFiles) Research() string { return f.name("agent2_out", ".json") }

// QA is the Stage 3 question set.
func (f RunFiles) QA() string { return f.name("agent3_out", ".json") }

// Pack is the rendered PDF.
func (f RunFiles) Pack() string { return f.name("interview_qa_pack", ".pdf") }

// RoundPack is the PDF of a single round.
func (f RunFiles) RoundPack(round string) string {
	return f.name("interview_qa_pack", "_"+rendering.Slug(round)+".pdf")
}

// Result is the final run result.
func (f RunFiles) Result() string { return f.name("run_result", ".json") }

// WriteJSON writes v as indented JSON without HTML escaping, creating the directory.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes a JSON artifact into out.
func ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
