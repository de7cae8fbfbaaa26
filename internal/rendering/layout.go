package rendering

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-prep/internal/types"
)

// Section titles and fixed texts of the pack.
const (
	PackTitle     = "Interview Q&A Pack"
	Top30Heading  = "Top 30 Questions with Detailed Answers"
	Top20Heading  = "Top 20 Questions"
	NotesHeading  = "Notes"
	EmptyTop20    = "No top_20_questions found in JSON."
	GeneratedTime = "2006-01-02 15:04"
)

// BlockKind selects the style a Block is drawn with.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockMeta
	BlockHeading
	BlockQuestion
	BlockTags
	BlockBody
	BlockSpacer
	BlockPageBreak
)

// Block is one paragraph of the pack, in reading order.
type Block struct {
	Kind  BlockKind
	Label string // bold prefix of meta lines
	Text  string
}

// PackData is everything printed in a pack.
type PackData struct {
	Set            *types.QASet
	CandidateName  string
	CandidateEmail string
	Generated      time.Time
}

// Layout returns the blocks of the pack. Rounds appear in the order they are first
// seen in top_30 and questions are numbered from 1 within each round.
func Layout(data PackData) []Block {
	set := data.Set
	if set == nil {
		set = &types.QASet{}
	}

	blocks := []Block{
		{Kind: BlockTitle, Text: PackTitle},
		{Kind: BlockSpacer},
		{Kind: BlockMeta, Label: "Generated:", Text: data.Generated.Format(GeneratedTime)},
	}
	if data.CandidateName != "" {
		blocks = append(blocks, Block{Kind: BlockMeta, Label: "Candidate:", Text: data.CandidateName})
	}
	if data.CandidateEmail != "" {
		blocks = append(blocks, Block{Kind: BlockMeta, Label: "Email:", Text: data.CandidateEmail})
	}
	rounds := "N/A"
	if len(set.Input.Rounds) > 0 {
		rounds = strings.Join(set.Input.Rounds, ", ")
	}
	blocks = append(blocks, Block{Kind: BlockMeta, Label: "Rounds:", Text: rounds})
	if set.Input.Agent1File != "" {
		blocks = append(blocks, Block{Kind: BlockMeta, Label: "Resume File:", Text: set.Input.Agent1File})
	}
	if set.Input.Agent2File != "" {
		blocks = append(blocks, Block{Kind: BlockMeta, Label: "Research File:", Text: set.Input.Agent2File})
	}
	blocks = append(blocks, Block{Kind: BlockSpacer}, Block{Kind: BlockHeading, Text: Top30Heading})

	for _, round := range set.RoundOrder() {
		blocks = append(blocks, Block{Kind: BlockHeading, Text: "Round: " + round})
		for i, item := range set.ItemsForRound(round) {
			if q := strings.TrimSpace(item.Question); q != "" {
				blocks = append(blocks, Block{Kind: BlockQuestion, Text: fmt.Sprintf("Q%d. %s", i+1, q)})
			}
			if tags := joinNonEmpty(" | ", item.FocusArea, item.Difficulty); tags != "" {
				blocks = append(blocks, Block{Kind: BlockTags, Text: tags})
			}
			if a := strings.TrimSpace(item.Answer); a != "" {
				blocks = append(blocks, Block{Kind: BlockBody, Text: a})
			}
		}
		blocks = append(blocks, Block{Kind: BlockSpacer})
	}

	blocks = append(blocks, Block{Kind: BlockPageBreak}, Block{Kind: BlockHeading, Text: Top20Heading})
	if len(set.Top20Questions) == 0 {
		blocks = append(blocks, Block{Kind: BlockMeta, Text: EmptyTop20})
	}
	for i, q := range set.Top20Questions {
		blocks = append(blocks, Block{Kind: BlockBody, Text: fmt.Sprintf("%d. %s", i+1, q)})
	}

	if len(set.Notes) > 0 {
		blocks = append(blocks, Block{Kind: BlockSpacer}, Block{Kind: BlockHeading, Text: NotesHeading})
		for _, n := range set.Notes {
			blocks = append(blocks, Block{Kind: BlockBody, Text: "- " + n})
		}
	}
	return blocks
}

// ForRound returns a copy of set restricted to one round: its top_30 items and the
// shortlist questions that belong to them.
func ForRound(set *types.QASet, round string) *types.QASet {
	out := set.Clone()
	out.Top30 = set.ItemsForRound(round)
	out.Input.Rounds = []string{round}

	inRound := make(map[string]bool, len(out.Top30))
	for _, item := range out.Top30 {
		inRound[item.Question] = true
	}
	out.Top20Questions = nil
	for _, q := range set.Top20Questions {
		if inRound[q] {
			out.Top20Questions = append(out.Top20Questions, q)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
