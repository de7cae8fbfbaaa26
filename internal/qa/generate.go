package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/prompts"
	"github.com/jonathan/interview-prep/internal/retrieval"
	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
)

// ChunksPerRound is how many retrieval excerpts are attached for each round.
const ChunksPerRound = 3

// Model is the subset of llm.Client that Stage 3 uses.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Request holds the Stage 3 inputs.
type Request struct {
	Combined   *types.CombinedDocuments
	Report     *types.ResearchReport
	Rounds     []string
	Agent1File string
	Agent2File string
	// RunID selects the retrieval partition; empty skips retrieval.
	RunID string
}

// Result is the Stage 3 output.
type Result struct {
	Set *types.QASet
	// Excerpts maps each round to the retrieval chunks sent with the prompt.
	Excerpts map[string][]string
	Warnings []string
	Raw      string
}

// Generator runs Stage 3.
type Generator struct {
	Model   Model
	Store   retrieval.Store
	Retry   retry.Policy
	Verbose bool
}

// NewGenerator returns a Generator with the default retry policy. store may be nil.
func NewGenerator(model Model, store retrieval.Store) *Generator {
	return &Generator{
		Model: model,
		Store: store,
		Retry: retry.DefaultPolicy("stage3 model call"),
	}
}

// Generate asks the model for the question set and repairs it. Retrieval failures are
// reported as warnings. An unrecoverable reply is returned as a *contract.Failure.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{Excerpts: make(map[string][]string)}
	g.collectExcerpts(ctx, req, result)

	system, err := prompts.Get(prompts.QAFile, "system")
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(map[string]any{
		"agent1_json":      req.Combined,
		"agent2_json":      req.Report,
		"interview_rounds": req.Rounds,
		"agent1_file":      req.Agent1File,
		"agent2_file":      req.Agent2File,
		"excerpts":         result.Excerpts,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode stage3 payload: %w", err)
	}
	request, err := prompts.Render(prompts.QAFile, "request", map[string]string{"Payload": string(payload)})
	if err != nil {
		return nil, err
	}
	prompt := system + "\n\n" + request

	raw, err := retry.Do(ctx, g.Retry, func(ctx context.Context) (string, error) {
		return g.Model.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	})
	if err != nil {
		return result, fmt.Errorf("question generation failed: %w", err)
	}
	result.Raw = raw

	obj, err := contract.Recover(raw)
	if err != nil {
		return result, err
	}

	set := SetFromRecord(obj)
	Repair(set, RepairContext{
		Agent1File: req.Agent1File,
		Agent2File: req.Agent2File,
		DocType:    docType(req.Combined),
		Rounds:     req.Rounds,
	})
	if g.Verbose {
		log.Printf("[QA] top_30=%d top_20=%d notes=%d", len(set.Top30), len(set.Top20Questions), len(set.Notes))
	}
	result.Set = set
	return result, nil
}

func (g *Generator) collectExcerpts(ctx context.Context, req Request, result *Result) {
	if g.Store == nil || req.RunID == "" {
		return
	}
	company := ""
	if req.Report != nil && !req.Report.IsStub() {
		company = req.Report.CompanyName
	}
	for _, round := range req.Rounds {
		query := round + " interview " + company
		matches, err := g.Store.Query(ctx, query, req.RunID, ChunksPerRound)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("retrieval for round %q failed: %v", round, err))
			continue
		}
		if len(matches) > 0 {
			result.Excerpts[round] = retrieval.Texts(matches)
		}
		if g.Verbose {
			log.Printf("[QA] round=%q excerpts=%d", round, len(matches))
		}
	}
}

func docType(c *types.CombinedDocuments) string {
	if c == nil || c.DocType == "" {
		return types.DocTypeCombined
	}
	return c.DocType
}
