package qa

import (
	"strings"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/types"
)

// SetFromRecord builds a QASet from a recovered object. Wrongly typed fields are
// dropped rather than rejected; Repair is expected to run afterwards.
func SetFromRecord(obj map[string]any) *types.QASet {
	set := &types.QASet{
		Top30:          []types.QAItem{},
		Top20Questions: contract.AsStringSlice(obj["top_20_questions"]),
		Notes:          contract.AsStringSlice(obj["notes"]),
	}

	if in, ok := obj["input"].(map[string]any); ok {
		set.Input = types.QAInput{
			Agent1File: contract.AsString(in["agent1_file"]),
			Agent2File: contract.AsString(in["agent2_file"]),
			DocType:    contract.AsString(in["doc_type"]),
			Rounds:     contract.AsStringSlice(in["rounds"]),
		}
	}

	list, _ := obj["top_30"].([]any)
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		set.Top30 = append(set.Top30, types.QAItem{
			Round:      strings.TrimSpace(contract.AsString(m["round"])),
			Question:   strings.TrimSpace(contract.AsString(m["question"])),
			Answer:     strings.TrimSpace(firstString(m, "answer", "detailed_answer")),
			FocusArea:  strings.TrimSpace(firstString(m, "focus_area", "focus")),
			Difficulty: contract.AsString(m["difficulty"]),
		})
	}
	return set
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := contract.AsString(m[k]); s != "" {
			return s
		}
	}
	return ""
}
