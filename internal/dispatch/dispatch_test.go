package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
)

type recordingRenderer struct {
	name, email, path string
	err               error
}

func (r *recordingRenderer) Render(_ *types.QASet, name, email, path string) error {
	r.name, r.email, r.path = name, email, path
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(path, []byte("%PDF-1.3 test"), 0o644)
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []Message
	fails int
	err   error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("421 try again later")
	}
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func fastDispatcher(mailer Mailer) (*Dispatcher, *recordingRenderer) {
	renderer := &recordingRenderer{}
	d := NewDispatcher(renderer, mailer)
	d.Retry = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, Name: "smtp send"}
	return d, renderer
}

func renderedRequest(t *testing.T, d *Dispatcher) Request {
	req := Request{
		Set:            &types.QASet{},
		CandidateName:  "Jane Lee",
		CandidateEmail: "jane@acme.io",
		PDFPath:        filepath.Join(t.TempDir(), "interview_qa_pack_1.pdf"),
	}
	require.NoError(t, d.Render(req))
	return req
}

func TestBody(t *testing.T) {
	assert.Equal(t, "Hi Jane Lee,\n\nPlease find attached your personalized Interview Q&A Pack tailored to your resume and the job description.\n\nBest of luck,\nRecruitRiders Team", Body("Jane Lee"))
	assert.Contains(t, Body("  "), "Hi Candidate,")
}

func TestResolveRecipient(t *testing.T) {
	assert.Equal(t, "override@x.io", ResolveRecipient(" override@x.io ", "jane@acme.io"))
	assert.Equal(t, "jane@acme.io", ResolveRecipient("", "jane@acme.io"))
	assert.Empty(t, ResolveRecipient("", ""))
}

func TestDispatcher_RenderUsesResolvedRecipient(t *testing.T) {
	d, renderer := fastDispatcher(nil)
	req := renderedRequest(t, d)

	assert.Equal(t, "Jane Lee", renderer.name)
	assert.Equal(t, "jane@acme.io", renderer.email)
	assert.FileExists(t, req.PDFPath)
}

func TestDispatcher_Deliver(t *testing.T) {
	mailer := &recordingMailer{}
	d, _ := fastDispatcher(mailer)
	req := renderedRequest(t, d)

	out, err := d.Deliver(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Sent)
	assert.Equal(t, "jane@acme.io", out.Recipient)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "jane@acme.io", msg.To)
	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Equal(t, Body("Jane Lee"), msg.Body)
	assert.Equal(t, []string{req.PDFPath}, msg.Attachments)
}

func TestDispatcher_DeliverOverrideAndSubject(t *testing.T) {
	mailer := &recordingMailer{}
	d, _ := fastDispatcher(mailer)
	req := renderedRequest(t, d)
	req.ToOverride = "coach@example.com"
	req.Subject = "Prep pack"

	out, err := d.Deliver(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "coach@example.com", out.Recipient)
	assert.Equal(t, "Prep pack", mailer.sent[0].Subject)
}

func TestDispatcher_DeliverRetries(t *testing.T) {
	mailer := &recordingMailer{fails: 2}
	d, _ := fastDispatcher(mailer)
	req := renderedRequest(t, d)

	out, err := d.Deliver(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Sent)
	assert.Len(t, mailer.sent, 1)
}

func TestDispatcher_DeliverErrors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		d, _ := fastDispatcher(&recordingMailer{})
		req := renderedRequest(t, d)
		req.CandidateEmail = ""

		out, err := d.Deliver(context.Background(), req)
		var de *DispatchError
		require.ErrorAs(t, err, &de)
		assert.ErrorIs(t, err, ErrNoRecipient)
		assert.False(t, out.Sent)
	})

	t.Run("no mailer", func(t *testing.T) {
		d, _ := fastDispatcher(nil)
		req := renderedRequest(t, d)

		_, err := d.Deliver(context.Background(), req)
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("missing pdf", func(t *testing.T) {
		d, _ := fastDispatcher(&recordingMailer{})
		req := Request{CandidateEmail: "jane@acme.io", PDFPath: filepath.Join(t.TempDir(), "missing.pdf")}

		_, err := d.Deliver(context.Background(), req)
		var de *DispatchError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, err.Error(), "pack file is missing")
	})

	t.Run("smtp keeps failing", func(t *testing.T) {
		d, _ := fastDispatcher(&recordingMailer{err: errors.New("535 auth failed")})
		req := renderedRequest(t, d)

		out, err := d.Deliver(context.Background(), req)
		var de *DispatchError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "jane@acme.io", de.Recipient)
		assert.Contains(t, err.Error(), "535 auth failed")
		assert.False(t, out.Sent)
		assert.FileExists(t, req.PDFPath)
	})
}

type fakeSender struct {
	messages []*gomail.Message
	err      error
	block    chan struct{}
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.block != nil {
		<-s.block
	}
	s.messages = append(s.messages, m...)
	return s.err
}

func TestNewSMTPMailer_MissingSettings(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Host: "smtp.gmail.com"})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"SMTP_USER", "SMTP_PASSWORD"}, ce.Fields)

	m, err := NewSMTPMailer(SMTPSettings{Host: "smtp.gmail.com", User: "bot@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 587, m.settings.Port)
	assert.Equal(t, "bot@example.com", m.settings.From)
}

func TestSMTPMailer_Send(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "pack.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.3"), 0o644))

	sender := &fakeSender{}
	m := NewSMTPMailerWithSender(SMTPSettings{User: "bot@example.com"}, sender)
	err := m.Send(context.Background(), Message{To: "jane@acme.io", Subject: "Pack", Body: Body("Jane"), Attachments: []string{pdf}})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	gm := sender.messages[0]
	assert.Equal(t, []string{"bot@example.com"}, gm.GetHeader("From"))
	assert.Equal(t, []string{"jane@acme.io"}, gm.GetHeader("To"))
	assert.Equal(t, []string{"Pack"}, gm.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "pack.pdf")
	assert.Contains(t, buf.String(), "application/pdf")
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := NewSMTPMailerWithSender(SMTPSettings{User: "bot@example.com"}, &fakeSender{err: errors.New("dial tcp: refused")})
	err := m.Send(context.Background(), Message{To: "jane@acme.io"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jane@acme.io")
}

func TestSMTPMailer_ContextCancelled(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	defer close(sender.block)
	m := NewSMTPMailerWithSender(SMTPSettings{User: "bot@example.com"}, sender)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.Send(ctx, Message{To: "jane@acme.io"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatchError(t *testing.T) {
	cause := errors.New("boom")
	err := &DispatchError{Recipient: "a@b.io", Message: "failed", Cause: cause}
	assert.Equal(t, "dispatch error (to a@b.io): failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
