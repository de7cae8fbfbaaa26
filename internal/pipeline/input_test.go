package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRounds(t *testing.T) {
	tests := []struct {
		name   string
		single []string
		list   string
		want   []string
	}{
		{name: "empty", want: []string{}},
		{name: "semicolons", list: "Technical; Behavioral", want: []string{"Technical", "Behavioral"}},
		{name: "mixed delimiters", list: "Phone Screen,Onsite\nHiring Manager", want: []string{"Phone Screen", "Onsite", "Hiring Manager"}},
		{name: "repeated flag first", single: []string{"System Design"}, list: "Coding", want: []string{"System Design", "Coding"}},
		{name: "duplicates removed", single: []string{"Coding", " Coding "}, list: "Coding;Behavioral", want: []string{"Coding", "Behavioral"}},
		{name: "blank entries dropped", list: " ; ,\r\n", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRounds(tt.single, tt.list))
		})
	}
}

func TestInputValidate(t *testing.T) {
	valid := func() Input {
		return Input{ResumePath: "resume.pdf", Rounds: []string{"Technical"}, OutputDir: "outputs"}
	}

	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
		wantMsg   string
	}{
		{name: "valid", mutate: func(*Input) {}},
		{name: "missing resume", mutate: func(in *Input) { in.ResumePath = "" }, wantField: "resume", wantMsg: "is required"},
		{name: "no rounds", mutate: func(in *Input) { in.Rounds = nil }, wantField: "interview-rounds", wantMsg: "at least one interview round is required"},
		{name: "blank round", mutate: func(in *Input) { in.Rounds = []string{"Coding", ""} }, wantField: "interview-rounds", wantMsg: "rounds must not be empty"},
		{name: "missing output dir", mutate: func(in *Input) { in.OutputDir = "" }, wantField: "output-dir", wantMsg: "is required"},
		{name: "bad pdf mode", mutate: func(in *Input) { in.PDFMode = "booklet" }, wantField: "pdf-mode", wantMsg: "must be one of"},
		{name: "per round mode", mutate: func(in *Input) { in.PDFMode = PDFModePerRound }},
		{name: "bad recipient", mutate: func(in *Input) { in.ToEmail = "not-an-email" }, wantField: "to-email", wantMsg: "valid email"},
		{name: "run id traversal", mutate: func(in *Input) { in.RunID = "a/../b" }, wantField: "run-id"},
		{name: "run id dots", mutate: func(in *Input) { in.RunID = "run..1" }, wantField: "run-id"},
		{name: "run id with suffix", mutate: func(in *Input) { in.RunID = "20260301_090000_ab12cd34" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr), "got %v", err)
			assert.Equal(t, tt.wantField, inputErr.Field)
			assert.Contains(t, inputErr.Message, tt.wantMsg)
		})
	}
}

func TestNewRunID(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "20260102_030405", NewRunID(ts))
}
