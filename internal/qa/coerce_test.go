package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-prep/internal/contract"
)

func TestSetFromRecord(t *testing.T) {
	obj, err := contract.Recover("```json\n" + `{
		"input": {"agent1_file": "a1.json", "rounds": ["Technical"]},
		"top_30": [
			{"round": "Technical", "question": " Explain joins. ", "answer": "Inner vs outer.", "focus_area": "SQL", "difficulty": "Easy"},
			"not an object",
			{"round": "Behavioral", "question": "Tell me about conflict.", "detailed_answer": "STAR.", "focus": "Teamwork", "difficulty": 3}
		],
		"top_20_questions": ["Explain joins.", ""],
		"notes": "single note"
	}` + "\n```")
	require.NoError(t, err)

	set := SetFromRecord(obj)

	assert.Equal(t, "a1.json", set.Input.Agent1File)
	assert.Equal(t, []string{"Technical"}, set.Input.Rounds)
	require.Len(t, set.Top30, 2)
	assert.Equal(t, "Explain joins.", set.Top30[0].Question)
	assert.Equal(t, "Easy", set.Top30[0].Difficulty)
	assert.Equal(t, "STAR.", set.Top30[1].Answer)
	assert.Equal(t, "Teamwork", set.Top30[1].FocusArea)
	assert.Equal(t, "3", set.Top30[1].Difficulty)
	assert.Equal(t, []string{"Explain joins."}, set.Top20Questions)
	assert.Equal(t, []string{"single note"}, set.Notes)
}

func TestSetFromRecord_WrongTypes(t *testing.T) {
	set := SetFromRecord(map[string]any{
		"input":            "nope",
		"top_30":           map[string]any{"round": "x"},
		"top_20_questions": 42.0,
	})

	assert.Empty(t, set.Top30)
	assert.NotNil(t, set.Top30)
	assert.Empty(t, set.Top20Questions)
	assert.Empty(t, set.Input.Agent1File)
}
