package main

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_InputErrors(t *testing.T) {
	binaryPath := getBinaryPath(t)
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Jane Lee\njane@example.com")

	tests := []struct {
		name      string
		args      []string
		wantType  string
		wantError string
	}{
		{
			name:      "no rounds",
			args:      []string{"run", "--resume", resume, "--output-dir", dir},
			wantType:  "InputError",
			wantError: "at least one interview round is required",
		},
		{
			name:      "missing resume",
			args:      []string{"run", "--interview-rounds", "Coding", "--output_dir", dir},
			wantType:  "InputError",
			wantError: "resume",
		},
		{
			name:      "bad pdf mode",
			args:      []string{"run", "--resume", resume, "--round", "Coding", "--pdf-mode", "booklet"},
			wantType:  "ConfigError",
			wantError: "pdf_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			output, err := cmd.Output()
			require.Error(t, err)

			var failure struct {
				Status       string `json:"status"`
				ErrorType    string `json:"error_type"`
				ErrorMessage string `json:"error_message"`
			}
			require.NoError(t, json.Unmarshal(output, &failure), "output: %s", output)
			assert.Equal(t, "failed", failure.Status)
			assert.Equal(t, tt.wantType, failure.ErrorType)
			assert.Contains(t, failure.ErrorMessage, tt.wantError)
		})
	}
}

func TestStageCommands_RequiredFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "parse-doc without --in", args: []string{"parse-doc"}},
		{name: "research without --parsed", args: []string{"research"}},
		{name: "generate-qa without --research", args: []string{"generate-qa", "--parsed", "x.json"}},
		{name: "render-pack without --out", args: []string{"render-pack", "--qa", "qa.json"}},
		{name: "batch without --manifest", args: []string{"batch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := exec.Command(binaryPath, tt.args...).CombinedOutput()
			assert.Error(t, err)
			assert.Contains(t, string(output), "required")
		})
	}
}

func TestRenderPackCommand(t *testing.T) {
	binaryPath := getBinaryPath(t)
	dir := t.TempDir()
	qaPath := writeFile(t, dir, "agent3.json", `{
		"input": {"agent1_file": "a1.json", "agent2_file": "a2.json", "doc_type": "combined_resume_and_jd", "rounds": ["Coding"]},
		"top_30": [{"round": "Coding", "question": "Reverse a list?", "answer": "Two pointers.", "focus_area": "algorithms", "difficulty": "easy"}],
		"top_20_questions": ["Reverse a list?"],
		"notes": []
	}`)
	out := filepath.Join(dir, "pack.pdf")

	output, err := exec.Command(binaryPath, "render-pack", "--qa", qaPath, "--out", out).Output()
	require.NoError(t, err)

	var outcome renderOutcome
	require.NoError(t, json.Unmarshal(output, &outcome))
	assert.Equal(t, out, outcome.PDF)
	assert.False(t, outcome.EmailSent)
	assert.FileExists(t, out)
}
