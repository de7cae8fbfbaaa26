package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/interview-prep/internal/config"
	"github.com/jonathan/interview-prep/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many independent pipelines from a YAML manifest",
	Long: `Runs every entry of a YAML manifest as an independent pipeline run, up to --parallel at a time.

Example manifest:

  defaults:
    interview_rounds: "Technical; Behavioral"
    pdf_mode: single
  runs:
    - resume: candidates/jane.pdf
      jd: jobs/acme_staff.txt
    - resume: candidates/sam.docx
      jd: https://example.com/jobs/42
      company: Example Inc
      send_email: true`,
	RunE: runBatch,
}

var (
	batchOpts     runFlags
	batchManifest string
	batchParallel int
)

// DefaultBatchParallel bounds concurrent runs when --parallel is not set.
const DefaultBatchParallel = 4

// ManifestEntry describes one run of a batch.
type ManifestEntry struct {
	Resume          string `yaml:"resume"`
	JD              string `yaml:"jd"`
	Notes           string `yaml:"notes"`
	InterviewRounds string `yaml:"interview_rounds"`
	Company         string `yaml:"company"`
	Role            string `yaml:"role"`
	RunID           string `yaml:"run_id"`
	PDFMode         string `yaml:"pdf_mode"`
	SendEmail       *bool  `yaml:"send_email"`
	ToEmail         string `yaml:"to_email"`
	EmailSubject    string `yaml:"email_subject"`
}

// Manifest is the batch file.
type Manifest struct {
	Defaults ManifestEntry   `yaml:"defaults"`
	Runs     []ManifestEntry `yaml:"runs"`
}

// BatchReport is printed once the batch has finished.
type BatchReport struct {
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Results   []any `json:"results"`
}

func init() {
	bindCommonFlags(batchCmd, &batchOpts)
	batchCmd.Flags().StringVarP(&batchManifest, "manifest", "m", "", "Path to the YAML manifest (required)")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", DefaultBatchParallel, "Maximum concurrent runs")
	batchCmd.Flags().StringVarP(&batchOpts.outputDir, "output-dir", "o", "", "Directory that receives one folder per run (default "+config.DefaultOutputDir+")")
	_ = batchCmd.MarkFlagRequired("manifest")

	rootCmd.AddCommand(batchCmd)
}

// LoadManifest reads and decodes a manifest, rejecting unknown keys.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer f.Close()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Runs) == 0 {
		return nil, fmt.Errorf("manifest %s has no runs", path)
	}
	return &m, nil
}

// inputs expands the manifest into pipeline inputs. Entry values override the manifest
// defaults, which override cfg. Run ids get a unique suffix so concurrent runs started in
// the same second never share a directory.
func (m *Manifest) inputs(cfg config.Config, now time.Time) []pipeline.Input {
	base := pipeline.NewRunID(now)
	inputs := make([]pipeline.Input, 0, len(m.Runs))
	for _, e := range m.Runs {
		e = e.withDefaults(m.Defaults)

		runID := e.RunID
		if runID == "" {
			runID = base + "_" + strings.SplitN(uuid.NewString(), "-", 2)[0]
		}
		sendEmail := cfg.SendEmail
		if e.SendEmail != nil {
			sendEmail = *e.SendEmail
		}
		inputs = append(inputs, pipeline.Input{
			ResumePath:      e.Resume,
			JDPath:          e.JD,
			NotesPath:       e.Notes,
			Rounds:          pipeline.ParseRounds(nil, firstNonEmpty(e.InterviewRounds, cfg.InterviewRounds)),
			CompanyOverride: e.Company,
			RoleOverride:    e.Role,
			OutputDir:       cfg.OutputDir,
			RunID:           runID,
			PDFMode:         firstNonEmpty(e.PDFMode, cfg.PDFMode),
			SendEmail:       sendEmail,
			ToEmail:         e.ToEmail,
			EmailSubject:    firstNonEmpty(e.EmailSubject, cfg.EmailSubject),
		})
	}
	return inputs
}

func (e ManifestEntry) withDefaults(d ManifestEntry) ManifestEntry {
	e.Notes = firstNonEmpty(e.Notes, d.Notes)
	e.InterviewRounds = firstNonEmpty(e.InterviewRounds, d.InterviewRounds)
	e.Company = firstNonEmpty(e.Company, d.Company)
	e.Role = firstNonEmpty(e.Role, d.Role)
	e.PDFMode = firstNonEmpty(e.PDFMode, d.PDFMode)
	e.ToEmail = firstNonEmpty(e.ToEmail, d.ToEmail)
	e.EmailSubject = firstNonEmpty(e.EmailSubject, d.EmailSubject)
	if e.SendEmail == nil {
		e.SendEmail = d.SendEmail
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manifest, err := LoadManifest(batchManifest)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, &batchOpts, os.Getenv)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	inputs := manifest.inputs(cfg, time.Now())
	results := make([]*pipeline.Result, len(inputs))

	var mu sync.Mutex
	progress := cmd.ErrOrStderr()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(batchParallel, 1))
	for i, in := range inputs {
		g.Go(func() error {
			// Runs fail independently; only the collected result reports it.
			res := a.orchestrator(io.Discard).Run(gctx, in)
			mu.Lock()
			results[i] = res
			fmt.Fprintf(progress, "[%d/%d] %s: %s\n", i+1, len(inputs), res.RunID, res.Status)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Total: len(results)}
	for _, res := range results {
		if res.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res.Report())
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
