package dispatch

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
)

// DefaultSubject is the subject used when none is given.
const DefaultSubject = "Your Interview Q&A Pack"

// Renderer writes a pack for set to path.
type Renderer interface {
	Render(set *types.QASet, name, email, path string) error
}

// Body returns the e-mail text for a candidate.
func Body(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Candidate"
	}
	return fmt.Sprintf("Hi %s,\n\nPlease find attached your personalized Interview Q&A Pack "+
		"tailored to your resume and the job description.\n\nBest of luck,\nRecruitRiders Team", name)
}

// ResolveRecipient returns the override when set, otherwise the extracted address.
func ResolveRecipient(override, extracted string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	return strings.TrimSpace(extracted)
}

// Request describes one pack delivery.
type Request struct {
	Set            *types.QASet
	CandidateName  string
	CandidateEmail string
	PDFPath        string
	ToOverride     string
	Subject        string
}

// Outcome is the delivery result.
type Outcome struct {
	Recipient string
	Sent      bool
	Duration  time.Duration
}

// Dispatcher runs Stage 4.
type Dispatcher struct {
	Renderer Renderer
	Mailer   Mailer
	Retry    retry.Policy
	Verbose  bool
}

// NewDispatcher returns a dispatcher. mailer may be nil when delivery is never requested.
func NewDispatcher(renderer Renderer, mailer Mailer) *Dispatcher {
	p := retry.DefaultPolicy("smtp send")
	p.Timeout = 60 * time.Second
	return &Dispatcher{Renderer: renderer, Mailer: mailer, Retry: p}
}

// Render writes the pack. Errors come from the renderer unchanged.
func (d *Dispatcher) Render(req Request) error {
	recipient := ResolveRecipient(req.ToOverride, req.CandidateEmail)
	if d.Verbose {
		log.Printf("[DISPATCH] rendering %s", req.PDFPath)
	}
	return d.Renderer.Render(req.Set, req.CandidateName, recipient, req.PDFPath)
}

// Deliver e-mails a rendered pack. Every failure is a *DispatchError.
func (d *Dispatcher) Deliver(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	recipient := ResolveRecipient(req.ToOverride, req.CandidateEmail)
	out := &Outcome{Recipient: recipient}

	if recipient == "" {
		return out, &DispatchError{Message: "cannot send pack", Cause: ErrNoRecipient}
	}
	if d.Mailer == nil {
		return out, &DispatchError{Recipient: recipient, Message: "cannot send pack", Cause: &ConfigError{Fields: []string{"SMTP_USER", "SMTP_PASSWORD"}}}
	}
	if _, err := os.Stat(req.PDFPath); err != nil {
		return out, &DispatchError{Recipient: recipient, Message: "pack file is missing", Cause: err}
	}

	subject := req.Subject
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}
	msg := Message{
		To:          recipient,
		Subject:     subject,
		Body:        Body(req.CandidateName),
		Attachments: []string{req.PDFPath},
	}

	if err := retry.Run(ctx, d.Retry, func(ctx context.Context) error {
		return d.Mailer.Send(ctx, msg)
	}); err != nil {
		return out, &DispatchError{Recipient: recipient, Message: "failed to send pack", Cause: err}
	}

	out.Sent = true
	out.Duration = time.Since(start)
	if d.Verbose {
		log.Printf("[DISPATCH] sent to %s in %s", recipient, out.Duration.Round(time.Millisecond))
	}
	return out, nil
}
