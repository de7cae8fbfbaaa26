package types

// Target sizes for the Stage 3 output.
const (
	Top30Size = 30
	Top20Size = 20
)

// Difficulty levels for QAItem.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// QAItem is one generated interview question with its answer.
type QAItem struct {
	Round      string `json:"round"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	FocusArea  string `json:"focus_area"`
	Difficulty string `json:"difficulty"`
}

// QAInput records the pipeline bookkeeping a QASet was generated from.
type QAInput struct {
	Agent1File string   `json:"agent1_file"`
	Agent2File string   `json:"agent2_file"`
	DocType    string   `json:"doc_type"`
	Rounds     []string `json:"rounds"`
}

// QASet is the Stage 3 output: ranked questions and a shortlist.
type QASet struct {
	Input          QAInput  `json:"input"`
	Top30          []QAItem `json:"top_30"`
	Top20Questions []string `json:"top_20_questions"`
	Notes          []string `json:"notes"`
}

// Clone returns a deep copy of the set.
func (s *QASet) Clone() *QASet {
	if s == nil {
		return nil
	}
	out := *s
	out.Input.Rounds = append([]string(nil), s.Input.Rounds...)
	out.Top30 = append([]QAItem(nil), s.Top30...)
	out.Top20Questions = append([]string(nil), s.Top20Questions...)
	out.Notes = append([]string(nil), s.Notes...)
	return &out
}

// RoundOrder returns the distinct rounds referenced by Top30 in first-seen order.
func (s *QASet) RoundOrder() []string {
	seen := make(map[string]bool)
	var order []string
	for _, item := range s.Top30 {
		r := item.Round
		if r == "" {
			r = "Unknown Round"
		}
		if !seen[r] {
			seen[r] = true
			order = append(order, r)
		}
	}
	return order
}

// ItemsForRound returns the Top30 items tagged with round, preserving order.
func (s *QASet) ItemsForRound(round string) []QAItem {
	var items []QAItem
	for _, item := range s.Top30 {
		r := item.Round
		if r == "" {
			r = "Unknown Round"
		}
		if r == round {
			items = append(items, item)
		}
	}
	return items
}
