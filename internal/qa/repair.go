// Package qa implements Stage 3: generating round-aligned interview questions and
// enforcing the size contract of the result.
package qa

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-prep/internal/types"
)

// NoteTop20Derived is appended when the shortlist had to be rebuilt from top_30.
const NoteTop20Derived = "top_20_questions was auto-derived from top_30 due to missing/short output."

// RepairContext is the pipeline's own bookkeeping for a QASet. Repair only uses it for
// input fields the model left empty.
type RepairContext struct {
	Agent1File string
	Agent2File string
	DocType    string
	Rounds     []string
}

// ShortTop30Note is the note for a top_30 list with n < 30 items.
func ShortTop30Note(n int) string {
	return fmt.Sprintf("Model returned %d items in top_30 (expected %d). Consider re-running with lower temperature.", n, types.Top30Size)
}

// UnknownRoundsNote is the note for n items tagged with a round outside the requested list.
func UnknownRoundsNote(n int) string {
	return fmt.Sprintf("%d items in top_30 use a round that is not in the requested rounds.", n)
}

// Repair enforces the size contract on set in place:
//   - missing input fields are filled from rc
//   - top_30 is truncated to 30 items, or a note records the shortfall
//   - difficulty values are trimmed and lower-cased
//   - items outside rc.Rounds are kept and counted in a note
//   - top_20_questions is truncated to 20, or rebuilt from top_30 questions
//
// Notes are never added twice, so Repair is idempotent.
func Repair(set *types.QASet, rc RepairContext) {
	if set == nil {
		return
	}

	if set.Input.Agent1File == "" {
		set.Input.Agent1File = rc.Agent1File
	}
	if set.Input.Agent2File == "" {
		set.Input.Agent2File = rc.Agent2File
	}
	if set.Input.DocType == "" {
		set.Input.DocType = rc.DocType
	}
	if len(set.Input.Rounds) == 0 && len(rc.Rounds) > 0 {
		set.Input.Rounds = append([]string(nil), rc.Rounds...)
	}

	switch n := len(set.Top30); {
	case n > types.Top30Size:
		set.Top30 = set.Top30[:types.Top30Size]
	case n < types.Top30Size:
		addNote(set, ShortTop30Note(n))
	}

	for i := range set.Top30 {
		set.Top30[i].Difficulty = normalizeDifficulty(set.Top30[i].Difficulty)
	}

	rounds := set.Input.Rounds
	if len(rc.Rounds) > 0 {
		rounds = rc.Rounds
	}
	if len(rounds) > 0 {
		if n := countOutside(set.Top30, rounds); n > 0 {
			addNote(set, UnknownRoundsNote(n))
		}
	}

	switch n := len(set.Top20Questions); {
	case n > types.Top20Size:
		set.Top20Questions = set.Top20Questions[:types.Top20Size]
	case n < types.Top20Size:
		set.Top20Questions = DeriveTop20(set.Top30)
		addNote(set, NoteTop20Derived)
	}

	if set.Top30 == nil {
		set.Top30 = []types.QAItem{}
	}
	if set.Notes == nil {
		set.Notes = []string{}
	}
}

// DeriveTop20 returns the first 20 distinct non-empty questions of items, in order.
func DeriveTop20(items []types.QAItem) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, types.Top20Size)
	for _, item := range items {
		q := item.Question
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == types.Top20Size {
			break
		}
	}
	return out
}

func normalizeDifficulty(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// Round names match exactly; case and spacing differences count as outside.
func countOutside(items []types.QAItem, rounds []string) int {
	allowed := make(map[string]bool, len(rounds))
	for _, r := range rounds {
		allowed[r] = true
	}
	var n int
	for _, item := range items {
		if !allowed[item.Round] {
			n++
		}
	}
	return n
}

func addNote(set *types.QASet, note string) {
	for _, existing := range set.Notes {
		if existing == note {
			return
		}
	}
	set.Notes = append(set.Notes, note)
}
