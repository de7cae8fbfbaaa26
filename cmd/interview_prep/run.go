package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-prep/internal/config"
	"github.com/jonathan/interview-prep/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full interview preparation pipeline end-to-end",
	Long: `Orchestrates the whole run: resume and job description parsing -> retrieval indexing ->
company research -> question generation -> PDF rendering -> optional e-mail -> audit.

Configuration can be loaded from a JSON file using --config. Command-line arguments override
config file values, which override environment variables.`,
	RunE: runInterviewPrep,
}

// runFlags holds the values bound to the run command.
type runFlags struct {
	configPath      string
	resume          string
	jd              string
	notes           string
	interviewRounds string
	rounds          []string
	company         string
	role            string
	outputDir       string
	runID           string
	pdfMode         string
	sendEmail       bool
	toEmail         string
	emailSubject    string
	printFull       bool
	apiKey          string
	databaseURL     string
	useBrowser      bool
	verbose         bool
	maxToolSteps    int
}

var runOpts runFlags

func init() {
	bindRunFlags(runCommand, &runOpts)
	rootCmd.AddCommand(runCommand)
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	bindCommonFlags(cmd, f)

	cmd.Flags().StringVarP(&f.resume, "resume", "r", "", "Path or URL of the resume (pdf, docx, txt, md, html or image)")
	cmd.Flags().StringVarP(&f.jd, "jd", "j", "", "Path or URL of the job description")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Path to interview notes parsed as an extra document")
	cmd.Flags().StringVar(&f.interviewRounds, "interview-rounds", "", "Interview rounds separated by ';', ',' or newlines")
	cmd.Flags().StringArrayVar(&f.rounds, "round", nil, "A single interview round (repeatable)")
	cmd.Flags().StringVar(&f.company, "company", "", "Company name override")
	cmd.Flags().StringVar(&f.role, "role", "", "Role title override")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory that receives one folder per run (default "+config.DefaultOutputDir+")")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "Run id (default: current timestamp)")
	cmd.Flags().StringVar(&f.pdfMode, "pdf-mode", "", "PDF mode: single or per_round (default single)")
	cmd.Flags().BoolVar(&f.sendEmail, "send-email", false, "E-mail the pack to the candidate")
	cmd.Flags().StringVar(&f.toEmail, "to-email", "", "Recipient override for --send-email")
	cmd.Flags().StringVar(&f.emailSubject, "email-subject", "", "E-mail subject (default \""+config.DefaultEmailSubject+"\")")
	cmd.Flags().BoolVar(&f.printFull, "print-full-result", false, "Print the full run result instead of the summary")
}

// bindCommonFlags binds the settings shared by every command that talks to the model.
func bindCommonFlags(cmd *cobra.Command, f *runFlags) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
	cmd.Flags().IntVar(&f.maxToolSteps, "max-tool-steps", 0, "Maximum research tool-call rounds (default 8)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run tracking, audit and retrieval
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
}

// resolveConfig layers flags over the config file, the environment and the defaults,
// then validates the result.
func resolveConfig(cmd *cobra.Command, f *runFlags, getenv func(string) string) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides; only flags that were explicitly set
	flags := cmd.Flags()
	if flags.Changed("resume") {
		cfg.Resume = f.resume
	}
	if flags.Changed("jd") {
		cfg.JD = f.jd
	}
	if flags.Changed("notes") {
		cfg.Notes = f.notes
	}
	if flags.Changed("interview-rounds") {
		cfg.InterviewRounds = f.interviewRounds
	}
	if flags.Changed("company") {
		cfg.Company = f.company
	}
	if flags.Changed("role") {
		cfg.Role = f.role
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("pdf-mode") {
		cfg.PDFMode = f.pdfMode
	}
	if flags.Changed("send-email") {
		cfg.SendEmail = f.sendEmail
	}
	if flags.Changed("to-email") {
		cfg.ToEmail = f.toEmail
	}
	if flags.Changed("email-subject") {
		cfg.EmailSubject = f.emailSubject
	}
	if flags.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if flags.Changed("max-tool-steps") {
		cfg.MaxToolSteps = f.maxToolSteps
	}

	// Step 3: Environment, then built-in defaults
	env := config.FromLookup(getenv)
	cfg = cfg.MergeWithDefaults(env)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	// Step 4: Validate
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runInput maps the resolved configuration onto a pipeline input.
func runInput(cfg config.Config, f *runFlags) pipeline.Input {
	return pipeline.Input{
		ResumePath:      cfg.Resume,
		JDPath:          cfg.JD,
		NotesPath:       cfg.Notes,
		Rounds:          pipeline.ParseRounds(f.rounds, cfg.InterviewRounds),
		CompanyOverride: cfg.Company,
		RoleOverride:    cfg.Role,
		OutputDir:       cfg.OutputDir,
		RunID:           f.runID,
		PDFMode:         cfg.PDFMode,
		SendEmail:       cfg.SendEmail,
		ToEmail:         cfg.ToEmail,
		EmailSubject:    cfg.EmailSubject,
	}
}

func runInterviewPrep(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stdout := cmd.OutOrStdout()

	cfg, err := resolveConfig(cmd, &runOpts, os.Getenv)
	if err != nil {
		return reportFailure(stdout, "ConfigError", err)
	}
	in := runInput(cfg, &runOpts)
	if err := in.Validate(); err != nil {
		return reportFailure(stdout, pipeline.ErrorType(err), err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return reportFailure(stdout, "ConfigError", err)
	}
	defer a.Close()

	res := a.orchestrator(cmd.ErrOrStderr()).Run(ctx, in)

	var report any = res.Report()
	if runOpts.printFull {
		report = res
	}
	if err := printJSON(stdout, report); err != nil {
		return err
	}
	if code := res.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// reportFailure prints the failure object for an error raised before the run started.
func reportFailure(w io.Writer, errorType string, err error) error {
	if perr := printJSON(w, pipeline.FailureSummary{
		Status:       pipeline.StatusFailed,
		ErrorType:    errorType,
		ErrorMessage: err.Error(),
	}); perr != nil {
		return perr
	}
	return &exitError{code: 1}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
