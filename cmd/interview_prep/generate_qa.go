package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-prep/internal/pipeline"
	"github.com/jonathan/interview-prep/internal/qa"
	"github.com/jonathan/interview-prep/internal/types"
)

var generateQACmd = &cobra.Command{
	Use:   "generate-qa",
	Short: "Generate the interview question set (Stage 3)",
	Long: `Generate 30 ranked questions with answers and a top-20 shortlist from Stage 1 and Stage 2 output.

--parsed accepts either the combined document (agent1_combined_out) or a single ParsedDocument,
which is treated as the resume.`,
	RunE: runGenerateQA,
}

var (
	generateOpts     runFlags
	generateParsed   string
	generateResearch string
	generateOut      string
)

func init() {
	bindCommonFlags(generateQACmd, &generateOpts)
	generateQACmd.Flags().StringVar(&generateParsed, "parsed", "", "Path to Stage 1 JSON (required)")
	generateQACmd.Flags().StringVar(&generateResearch, "research", "", "Path to Stage 2 ResearchReport JSON (required)")
	generateQACmd.Flags().StringVar(&generateOpts.interviewRounds, "interview-rounds", "", "Interview rounds separated by ';', ',' or newlines")
	generateQACmd.Flags().StringArrayVar(&generateOpts.rounds, "round", nil, "A single interview round (repeatable)")
	generateQACmd.Flags().StringVar(&generateOut, "out", "", "Path to output JSON file (default: stdout)")
	_ = generateQACmd.MarkFlagRequired("parsed")
	_ = generateQACmd.MarkFlagRequired("research")

	rootCmd.AddCommand(generateQACmd)
}

// loadCombined reads a combined Stage 1 artifact, wrapping a single ParsedDocument as the resume.
func loadCombined(path string) (*types.CombinedDocuments, error) {
	var combined types.CombinedDocuments
	if err := pipeline.ReadJSON(path, &combined); err != nil {
		return nil, err
	}
	if combined.DocType == types.DocTypeCombined {
		return &combined, nil
	}

	var doc types.ParsedDocument
	if err := pipeline.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	return types.NewCombinedDocuments(&doc, nil), nil
}

func runGenerateQA(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, &generateOpts, os.Getenv)
	if err != nil {
		return err
	}
	rounds := pipeline.ParseRounds(generateOpts.rounds, cfg.InterviewRounds)
	if len(rounds) == 0 {
		return fmt.Errorf("at least one interview round is required; use --interview-rounds or --round")
	}

	combined, err := loadCombined(generateParsed)
	if err != nil {
		return fmt.Errorf("failed to read parsed documents: %w", err)
	}
	var report types.ResearchReport
	if err := pipeline.ReadJSON(generateResearch, &report); err != nil {
		return fmt.Errorf("failed to read research report: %w", err)
	}

	a, err := newModelApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.generator().Generate(ctx, qa.Request{
		Combined:   combined,
		Report:     &report,
		Rounds:     rounds,
		Agent1File: generateParsed,
		Agent2File: generateResearch,
	})
	if err != nil {
		return fmt.Errorf("failed to generate interview questions: %w", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	return writeOutput(cmd, generateOut, res.Set)
}
