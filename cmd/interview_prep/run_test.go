package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-prep/internal/config"
	"github.com/jonathan/interview-prep/internal/pipeline"
)

func newTestRunCommand(t *testing.T, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	f := &runFlags{}
	cmd := &cobra.Command{Use: "run"}
	bindRunFlags(cmd, f)
	cmd.Flags().SetNormalizeFunc(normalizeFlagName)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, f
}

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Jane Lee")
	cfgPath := writeFile(t, dir, "config.json", `{
		"resume": "`+resume+`",
		"interview_rounds": "Coding; Behavioral",
		"company": "From File",
		"output_dir": "file-out"
	}`)

	cmd, f := newTestRunCommand(t, "--config", cfgPath, "--company", "From Flag", "--pdf_mode", "per_round")
	cfg, err := resolveConfig(cmd, f, lookup(map[string]string{
		"GEMINI_API_KEY": "env-key",
		"SMTP_USER":      "mailer@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, resume, cfg.Resume)
	assert.Equal(t, "From Flag", cfg.Company)
	assert.Equal(t, "file-out", cfg.OutputDir)
	assert.Equal(t, "per_round", cfg.PDFMode)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, config.DefaultEmailSubject, cfg.EmailSubject)
	assert.Equal(t, config.DefaultSMTPHost, cfg.SMTP.Host)
	assert.Equal(t, "mailer@example.com", cfg.SMTP.From)
	assert.Equal(t, config.DefaultMaxToolSteps, cfg.MaxToolSteps)
}

func TestResolveConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "bad pdf mode", args: []string{"--pdf-mode", "booklet"}, wantErr: "pdf_mode must be one of"},
		{name: "missing resume file", args: []string{"--resume", "/nonexistent/resume.pdf"}, wantErr: "resume file not found"},
		{name: "email without smtp", args: []string{"--send-email"}, wantErr: "smtp_user is required"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/config.json"}, wantErr: "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := newTestRunCommand(t, tt.args...)
			_, err := resolveConfig(cmd, f, lookup(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunInput_Rounds(t *testing.T) {
	cmd, f := newTestRunCommand(t,
		"--resume", "resume.pdf",
		"--round", "System Design",
		"--interview_rounds", "Coding;System Design\nBehavioral",
		"--run-id", "custom_1",
	)
	cfg := config.Config{
		Resume:          f.resume,
		InterviewRounds: f.interviewRounds,
		OutputDir:       config.DefaultOutputDir,
	}
	require.True(t, cmd.Flags().Changed("interview-rounds"))

	in := runInput(cfg, f)
	assert.Equal(t, []string{"System Design", "Coding", "Behavioral"}, in.Rounds)
	assert.Equal(t, "custom_1", in.RunID)
	assert.NoError(t, in.Validate())
}

func TestNormalizeFlagName(t *testing.T) {
	assert.Equal(t, "output-dir", string(normalizeFlagName(nil, "output_dir")))
	assert.Equal(t, "interview-rounds", string(normalizeFlagName(nil, "interview-rounds")))
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "runs.yaml", `
defaults:
  interview_rounds: "Technical; Behavioral"
  send_email: true
runs:
  - resume: jane.pdf
    jd: acme.txt
  - resume: sam.docx
    company: Example Inc
    interview_rounds: Coding
    send_email: false
    run_id: sam_run
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Runs, 2)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	inputs := m.inputs(config.Config{OutputDir: "out", PDFMode: config.PDFModeSingle}, now)
	require.Len(t, inputs, 2)

	assert.Equal(t, []string{"Technical", "Behavioral"}, inputs[0].Rounds)
	assert.True(t, inputs[0].SendEmail)
	assert.Regexp(t, `^20260301_090000_[0-9a-f]{8}$`, inputs[0].RunID)
	assert.Equal(t, "out", inputs[0].OutputDir)
	assert.Equal(t, pipeline.PDFModeSingle, inputs[0].PDFMode)

	assert.Equal(t, []string{"Coding"}, inputs[1].Rounds)
	assert.False(t, inputs[1].SendEmail)
	assert.Equal(t, "sam_run", inputs[1].RunID)
	assert.Equal(t, "Example Inc", inputs[1].CompanyOverride)

	for _, in := range inputs {
		assert.NoError(t, in.Validate())
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadManifest(writeFile(t, dir, "empty.yaml", "defaults: {}\n"))
	assert.ErrorContains(t, err, "has no runs")

	_, err = LoadManifest(writeFile(t, dir, "unknown.yaml", "runs:\n  - resume: a.pdf\n    colour: blue\n"))
	assert.ErrorContains(t, err, "failed to parse manifest")

	_, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read manifest")
}

func TestLoadCombined(t *testing.T) {
	dir := t.TempDir()

	single := writeFile(t, dir, "resume.json", `{"file_path":"r.pdf","doc_type":"resume","summary":"s","key_points":[],"entities":{},"raw_text_preview":"Jane"}`)
	combined, err := loadCombined(single)
	require.NoError(t, err)
	require.NotNil(t, combined.ResumeData)
	assert.Equal(t, "r.pdf", combined.ResumeData.FilePath)
	assert.Nil(t, combined.JDData)

	both := writeFile(t, dir, "combined.json", `{"doc_type":"combined_resume_and_jd","resume_data":{"file_path":"r.pdf"},"jd_data":{"file_path":"jd.txt"}}`)
	combined, err = loadCombined(both)
	require.NoError(t, err)
	assert.Equal(t, "jd.txt", combined.JDData.FilePath)
}
