package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepStatusConstants(t *testing.T) {
	assert.Equal(t, "pending", StepStatusPending)
	assert.Equal(t, "in_progress", StepStatusInProgress)
	assert.Equal(t, "completed", StepStatusCompleted)
	assert.Equal(t, "failed", StepStatusFailed)
	assert.Equal(t, "skipped", StepStatusSkipped)
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StepStatusPending, false},
		{StepStatusInProgress, false},
		{StepStatusCompleted, true},
		{StepStatusFailed, true},
		{StepStatusSkipped, true},
		{"bogus", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTerminal(tt.status))
		})
	}
}

func TestRunStepInput(t *testing.T) {
	input := &RunStepInput{
		Step:       "STAGE3",
		Category:   StepCategoryQA,
		Status:     StepStatusPending,
		Parameters: map[string]any{"rounds": 2},
	}

	assert.Equal(t, "STAGE3", input.Step)
	assert.Equal(t, StepCategoryQA, input.Category)
	assert.Equal(t, map[string]any{"rounds": 2}, input.Parameters)
}
