package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-prep/internal/observability"
	"github.com/jonathan/interview-prep/internal/pipeline"
	"github.com/jonathan/interview-prep/internal/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research the company behind a parsed document (Stage 2)",
	Long:  "Resolve the company and role from a ParsedDocument JSON (or the overrides) and produce a ResearchReport using web search and page fetches.",
	RunE:  runResearch,
}

var (
	researchOpts    runFlags
	researchParsed  string
	researchCompany string
	researchRole    string
	researchOut     string
)

func init() {
	bindCommonFlags(researchCmd, &researchOpts)
	researchCmd.Flags().StringVar(&researchParsed, "parsed", "", "Path to a ParsedDocument JSON, usually the job description (required)")
	researchCmd.Flags().StringVar(&researchCompany, "company", "", "Company name override")
	researchCmd.Flags().StringVar(&researchRole, "role", "", "Role title override")
	researchCmd.Flags().StringVar(&researchOut, "out", "", "Path to output JSON file (default: stdout)")
	_ = researchCmd.MarkFlagRequired("parsed")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var doc types.ParsedDocument
	if err := pipeline.ReadJSON(researchParsed, &doc); err != nil {
		return fmt.Errorf("failed to read parsed document: %w", err)
	}

	cfg, err := resolveConfig(cmd, &researchOpts, os.Getenv)
	if err != nil {
		return err
	}
	a, err := newModelApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.researcher().Research(ctx, &doc, researchCompany, researchRole)
	if err != nil {
		return fmt.Errorf("failed to research company: %w", err)
	}
	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintResearchReport(res.Report)
	}
	return writeOutput(cmd, researchOut, res.Report)
}
