package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-prep/internal/contact"
	"github.com/jonathan/interview-prep/internal/dispatch"
	"github.com/jonathan/interview-prep/internal/pipeline"
	"github.com/jonathan/interview-prep/internal/rendering"
	"github.com/jonathan/interview-prep/internal/types"
)

var renderPackCmd = &cobra.Command{
	Use:   "render-pack",
	Short: "Render a question set to PDF and optionally e-mail it (Stage 4)",
	Long:  "Render a QASet JSON into the Interview Q&A Pack PDF. With --send-email the PDF is sent to --to-email or the e-mail found in --resume-json.",
	RunE:  runRenderPack,
}

var (
	renderOpts   runFlags
	renderQA     string
	renderOut    string
	renderResume string
)

// renderOutcome is printed by render-pack.
type renderOutcome struct {
	PDF         string `json:"pdf"`
	EmailTarget string `json:"email_target,omitempty"`
	EmailSent   bool   `json:"email_sent"`
	Error       string `json:"error,omitempty"`
}

func init() {
	renderPackCmd.Flags().StringVar(&renderOpts.configPath, "config", "", "Path to config.json file (SMTP settings)")
	renderPackCmd.Flags().StringVar(&renderQA, "qa", "", "Path to QASet JSON (required)")
	renderPackCmd.Flags().StringVar(&renderOut, "out", "", "Path of the PDF to write (required)")
	renderPackCmd.Flags().StringVar(&renderResume, "resume-json", "", "Stage 1 resume or combined JSON used for the candidate name and e-mail")
	renderPackCmd.Flags().BoolVar(&renderOpts.sendEmail, "send-email", false, "E-mail the pack after rendering")
	renderPackCmd.Flags().StringVar(&renderOpts.toEmail, "to-email", "", "Recipient override for --send-email")
	renderPackCmd.Flags().StringVar(&renderOpts.emailSubject, "email-subject", "", "E-mail subject")
	renderPackCmd.Flags().BoolVarP(&renderOpts.verbose, "verbose", "v", false, "Print detailed debug information")
	_ = renderPackCmd.MarkFlagRequired("qa")
	_ = renderPackCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(renderPackCmd)
}

func runRenderPack(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd, &renderOpts, os.Getenv)
	if err != nil {
		return err
	}

	var set types.QASet
	if err := pipeline.ReadJSON(renderQA, &set); err != nil {
		return fmt.Errorf("failed to read question set: %w", err)
	}

	var candidate contact.Contact
	if renderResume != "" {
		combined, err := loadCombined(renderResume)
		if err != nil {
			return fmt.Errorf("failed to read resume document: %w", err)
		}
		candidate = contact.FromDocument(combined.ResumeData)
	}

	a := &app{cfg: cfg}
	d := a.dispatcher(rendering.NewPackRenderer())
	req := dispatch.Request{
		Set:            &set,
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
		PDFPath:        renderOut,
		ToOverride:     cfg.ToEmail,
		Subject:        cfg.EmailSubject,
	}
	if err := d.Render(req); err != nil {
		return err
	}

	out := renderOutcome{PDF: renderOut, EmailTarget: dispatch.ResolveRecipient(req.ToOverride, req.CandidateEmail)}
	var sendErr error
	if cfg.SendEmail {
		res, err := d.Deliver(ctx, req)
		if res != nil {
			out.EmailTarget = res.Recipient
			out.EmailSent = res.Sent
		}
		if err != nil {
			out.Error = err.Error()
			sendErr = err
		}
	}
	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if sendErr != nil {
		return &exitError{code: 1}
	}
	return nil
}
