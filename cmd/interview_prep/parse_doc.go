package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-prep/internal/pipeline"
	"github.com/jonathan/interview-prep/internal/schemas"
	schemafiles "github.com/jonathan/interview-prep/schemas"
)

var parseDocCmd = &cobra.Command{
	Use:   "parse-doc",
	Short: "Parse one document into ParsedDocument JSON (Stage 1)",
	Long:  "Extract a resume, job description or notes file and summarize it into ParsedDocument JSON that validates against the parsed_document schema.",
	RunE:  runParseDoc,
}

var (
	parseDocOpts runFlags
	parseDocIn   string
	parseDocOut  string
)

func init() {
	bindCommonFlags(parseDocCmd, &parseDocOpts)
	parseDocCmd.Flags().StringVarP(&parseDocIn, "in", "i", "", "Path or URL of the input document (required)")
	parseDocCmd.Flags().StringVar(&parseDocOut, "out", "", "Path to output JSON file (default: stdout)")
	_ = parseDocCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(parseDocCmd)
}

func runParseDoc(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, &parseDocOpts, os.Getenv)
	if err != nil {
		return err
	}
	a, err := newModelApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.parser().Parse(ctx, parseDocIn)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", parseDocIn, err)
	}
	for _, w := range schemas.Warnings(schemafiles.ParsedDocument, res.Document) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	return writeOutput(cmd, parseDocOut, res.Document)
}

// writeOutput writes v as JSON to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, v any) error {
	if path == "" {
		return printJSON(cmd.OutOrStdout(), v)
	}
	if err := pipeline.WriteJSON(path, v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
