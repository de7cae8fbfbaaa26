package qa

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-prep/internal/types"
)

var testRounds = []string{"Recruiter Screen", "Technical"}

func items(n int, round string) []types.QAItem {
	out := make([]types.QAItem, n)
	for i := range out {
		out[i] = types.QAItem{
			Round:      round,
			Question:   fmt.Sprintf("Question %d?", i+1),
			Answer:     "Answer",
			FocusArea:  "SQL",
			Difficulty: "medium",
		}
	}
	return out
}

func questions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Question %d?", i+1)
	}
	return out
}

func testContext() RepairContext {
	return RepairContext{
		Agent1File: "run/agent1_combined_out_1.json",
		Agent2File: "run/agent2_out_1.json",
		DocType:    types.DocTypeCombined,
		Rounds:     testRounds,
	}
}

func TestRepair_FillsMissingInput(t *testing.T) {
	set := &types.QASet{Top30: items(30, "Technical"), Top20Questions: questions(20)}
	Repair(set, testContext())

	assert.Equal(t, "run/agent1_combined_out_1.json", set.Input.Agent1File)
	assert.Equal(t, "run/agent2_out_1.json", set.Input.Agent2File)
	assert.Equal(t, types.DocTypeCombined, set.Input.DocType)
	assert.Equal(t, testRounds, set.Input.Rounds)
	assert.Empty(t, set.Notes)
	assert.NotNil(t, set.Notes)
}

func TestRepair_KeepsModelInput(t *testing.T) {
	set := &types.QASet{
		Input:          types.QAInput{Agent1File: "model.json", DocType: "resume"},
		Top30:          items(30, "Technical"),
		Top20Questions: questions(20),
	}
	Repair(set, testContext())

	assert.Equal(t, "model.json", set.Input.Agent1File)
	assert.Equal(t, "resume", set.Input.DocType)
	assert.Equal(t, "run/agent2_out_1.json", set.Input.Agent2File)
}

func TestRepair_TruncatesTop30InOrder(t *testing.T) {
	set := &types.QASet{Top30: items(35, "Technical"), Top20Questions: questions(20)}
	Repair(set, testContext())

	require.Len(t, set.Top30, 30)
	assert.Equal(t, "Question 1?", set.Top30[0].Question)
	assert.Equal(t, "Question 30?", set.Top30[29].Question)
	assert.Empty(t, set.Notes)
}

func TestRepair_ShortTop30AddsNoteWithoutSynthesis(t *testing.T) {
	set := &types.QASet{Top30: items(12, "Technical"), Top20Questions: questions(20)}
	Repair(set, testContext())

	assert.Len(t, set.Top30, 12)
	assert.Equal(t, []string{
		"Model returned 12 items in top_30 (expected 30). Consider re-running with lower temperature.",
	}, set.Notes)
}

func TestRepair_DerivesTop20WithDuplicatesCollapsed(t *testing.T) {
	top30 := items(10, "Technical")
	top30[3].Question = top30[1].Question
	top30[7].Question = ""
	set := &types.QASet{Top30: top30, Top20Questions: []string{"Only one"}}

	Repair(set, testContext())

	assert.Equal(t, []string{
		"Question 1?", "Question 2?", "Question 3?", "Question 5?",
		"Question 6?", "Question 7?", "Question 9?", "Question 10?",
	}, set.Top20Questions)
	assert.Contains(t, set.Notes, NoteTop20Derived)
	assert.Contains(t, set.Notes, ShortTop30Note(10))
}

func TestRepair_DerivationStopsAtTwenty(t *testing.T) {
	set := &types.QASet{Top30: items(30, "Technical")}
	Repair(set, testContext())

	assert.Equal(t, questions(20), set.Top20Questions)
	assert.Equal(t, []string{NoteTop20Derived}, set.Notes)
}

func TestRepair_TruncatesTop20(t *testing.T) {
	set := &types.QASet{Top30: items(30, "Technical"), Top20Questions: questions(25)}
	Repair(set, testContext())

	assert.Equal(t, questions(20), set.Top20Questions)
	assert.NotContains(t, set.Notes, NoteTop20Derived)
}

func TestRepair_NormalizesDifficulty(t *testing.T) {
	top30 := items(3, "Technical")
	top30[0].Difficulty = "HARD"
	top30[1].Difficulty = " Easy "
	top30[2].Difficulty = "brutal"
	set := &types.QASet{Top30: top30, Top20Questions: questions(20)}

	Repair(set, testContext())

	assert.Equal(t, "hard", set.Top30[0].Difficulty)
	assert.Equal(t, "easy", set.Top30[1].Difficulty)
	assert.Equal(t, "brutal", set.Top30[2].Difficulty)
}

func TestRepair_UnknownRoundsKeptWithNote(t *testing.T) {
	top30 := append(items(28, "Technical"), items(2, "technical")...)
	set := &types.QASet{Top30: top30, Top20Questions: questions(20)}

	Repair(set, testContext())

	assert.Len(t, set.Top30, 30)
	assert.Equal(t, []string{UnknownRoundsNote(2)}, set.Notes)
}

func TestRepair_Idempotent(t *testing.T) {
	tests := []struct {
		name string
		set  *types.QASet
	}{
		{"oversized", &types.QASet{Top30: items(35, "Technical"), Top20Questions: questions(25)}},
		{"undersized", &types.QASet{Top30: items(10, "Behavioral"), Top20Questions: nil}},
		{"empty", &types.QASet{}},
		{"exact", &types.QASet{Top30: items(30, "Recruiter Screen"), Top20Questions: questions(20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Repair(tt.set, testContext())
			once, err := json.Marshal(tt.set)
			require.NoError(t, err)

			Repair(tt.set, testContext())
			twice, err := json.Marshal(tt.set)
			require.NoError(t, err)
			assert.JSONEq(t, string(once), string(twice))
		})
	}
}

func TestRepair_NilSet(t *testing.T) {
	assert.NotPanics(t, func() { Repair(nil, testContext()) })
}

func TestDeriveTop20(t *testing.T) {
	assert.Empty(t, DeriveTop20(nil))
	assert.Len(t, DeriveTop20(items(40, "Technical")), 20)
}
