// Package pipeline orchestrates the interview preparation stages for one run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-prep/internal/audit"
	"github.com/jonathan/interview-prep/internal/contact"
	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/db"
	"github.com/jonathan/interview-prep/internal/dispatch"
	"github.com/jonathan/interview-prep/internal/observability"
	"github.com/jonathan/interview-prep/internal/parsing"
	"github.com/jonathan/interview-prep/internal/pipeline/steps"
	"github.com/jonathan/interview-prep/internal/qa"
	"github.com/jonathan/interview-prep/internal/rendering"
	"github.com/jonathan/interview-prep/internal/research"
	"github.com/jonathan/interview-prep/internal/retrieval"
	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/schemas"
	"github.com/jonathan/interview-prep/internal/storage"
	"github.com/jonathan/interview-prep/internal/types"
	schemafiles "github.com/jonathan/interview-prep/schemas"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// DocumentParser runs Stage 1 on one input.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (*parsing.Result, error)
}

// CompanyResearcher runs Stage 2.
type CompanyResearcher interface {
	Research(ctx context.Context, doc *types.ParsedDocument, companyOverride, roleOverride string) (*research.Result, error)
}

// QuestionGenerator runs Stage 3.
type QuestionGenerator interface {
	Generate(ctx context.Context, req qa.Request) (*qa.Result, error)
}

// RoundRenderer writes the pack of a single round.
type RoundRenderer interface {
	RenderRound(set *types.QASet, round, name, email, path string) error
}

// RunTracker mirrors run progress into the relational store. *db.DB implements it.
type RunTracker interface {
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	UpdateRun(ctx context.Context, runID uuid.UUID, update db.RunUpdate) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, errorType, errorMessage string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) (uuid.UUID, error)
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) (uuid.UUID, error)
	CreateRunStep(ctx context.Context, runID uuid.UUID, input *db.RunStepInput) (*db.RunStep, error)
	UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, stepName string, status string, errorMsg *string, artifactID *uuid.UUID) error
}

// Orchestrator runs the stages for one resume/JD pair at a time. Only Parser, Researcher,
// Generator and Dispatcher are required; the other collaborators are optional sinks.
// An Orchestrator holds no per-run state and may serve concurrent runs.
type Orchestrator struct {
	Parser     DocumentParser
	Researcher CompanyResearcher
	Generator  QuestionGenerator
	Dispatcher *dispatch.Dispatcher
	Rounds     RoundRenderer

	Retrieval retrieval.Store
	Audit     audit.Store
	Objects   storage.ObjectStore
	Tracker   RunTracker

	OnProgress ProgressCallback
	Out        io.Writer
	Verbose    bool
	Now        func() time.Time
	SinkRetry  retry.Policy
}

// run holds the state of one execution.
type run struct {
	o        *Orchestrator
	in       Input
	files    RunFiles
	res      *Result
	printer  *observability.Printer
	dbRunID  uuid.UUID
	statuses map[string]string
	artifact *uuid.UUID

	resume   *parsing.Result
	jd       *parsing.Result
	combined *types.CombinedDocuments
	report   *types.ResearchReport
	set      *types.QASet
}

// Run executes every state from INIT to DONE and returns the run result. It never returns
// nil; failures are reported through Result.Status, ErrorType and ErrorMessage.
func (o *Orchestrator) Run(ctx context.Context, in Input) *Result {
	start := o.now()
	if in.RunID == "" {
		in.RunID = NewRunID(start)
	}
	if in.PDFMode == "" {
		in.PDFMode = PDFModeSingle
	}
	files := NewRunFiles(in.OutputDir, in.RunID)
	r := &run{
		o:        o,
		in:       in,
		files:    files,
		res:      newResult(in.RunID, files.Dir, in.Rounds, start),
		printer:  observability.NewPrinter(o.out()),
		statuses: make(map[string]string),
	}

	r.emit(steps.StateInit, fmt.Sprintf("Starting run %s", in.RunID), nil)
	if err := in.Validate(); err != nil {
		r.res.fail(err)
		r.res.finish(o.now())
		return r.res
	}
	if err := os.MkdirAll(files.Dir, 0o755); err != nil {
		r.res.fail(fmt.Errorf("failed to create run directory: %w", err))
		r.res.finish(o.now())
		return r.res
	}
	r.startTracking(ctx)

	if err := r.execute(ctx); err != nil {
		r.res.fail(err)
	}
	r.finalize(ctx)
	return r.res
}

func (r *run) execute(ctx context.Context) error {
	stages := []struct {
		state string
		fn    func(context.Context) (string, error)
	}{
		{steps.StateResume, r.parseResume},
		{steps.StateJobDescription, r.parseJobDescription},
		{steps.StatePersistRetrieval, r.persistRetrieval},
		{steps.StateResearch, r.research},
		{steps.StateQA, r.generateQA},
		{steps.StateRender, r.render},
		{steps.StateDispatch, r.dispatch},
		{steps.StateAudit, r.audit},
	}
	for _, s := range stages {
		if err := r.step(ctx, s.state, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// step runs one state, recording its status and duration everywhere progress is tracked.
// fn returns the final step status; a non-nil error aborts the run.
func (r *run) step(ctx context.Context, state string, fn func(context.Context) (string, error)) error {
	if err := steps.Ready(state, r.statuses); err != nil {
		return err
	}
	def := steps.StepRegistry[state]
	n, total := steps.Position(state)
	fmt.Fprintf(r.o.out(), "Step %d/%d: %s...\n", n, total, def.Label)

	r.trackStep(ctx, state, db.StepStatusInProgress)
	r.artifact = nil
	started := r.o.now()

	status, err := fn(ctx)
	if err != nil {
		status = db.StepStatusFailed
	}

	rec := StateRecord{State: state, Status: status, DurationMs: r.o.now().Sub(started).Milliseconds()}
	var errMsg *string
	if err != nil {
		msg := err.Error()
		rec.Error = &msg
		errMsg = &msg
	}
	r.res.States = append(r.res.States, rec)
	r.statuses[state] = status
	r.finishStep(ctx, state, status, errMsg)

	if err == nil {
		r.emit(state, fmt.Sprintf("%s: %s", def.Label, status), nil)
	}
	return err
}

// Stage 1: resume.
func (r *run) parseResume(ctx context.Context) (string, error) {
	res, err := r.o.Parser.Parse(ctx, r.in.ResumePath)
	if err != nil {
		return "", r.stageFailure(ctx, steps.StateResume, "failed to parse resume", r.files.Resume(), OutputResume, db.StepResumeDocument, db.CategoryIntake, err)
	}
	r.resume = res
	if err := r.persist(ctx, OutputResume, r.files.Resume(), db.StepResumeDocument, db.CategoryIntake, res.Document); err != nil {
		return "", err
	}
	r.saveMetadata(ctx, db.StepResumeDocument, res)
	r.schemaWarnings(schemafiles.ParsedDocument, res.Document)

	c := contact.FromDocument(res.Document.Clone())
	r.res.CandidateName = c.Name
	r.res.CandidateEmail = c.Email
	r.trackUpdate(ctx, db.RunUpdate{CandidateName: c.Name, CandidateEmail: c.Email})

	if r.o.Verbose {
		r.printer.PrintParsedDocument(res.Document)
	}
	return db.StepStatusCompleted, nil
}

// Stage 1: job description and notes, then the combined artifact.
func (r *run) parseJobDescription(ctx context.Context) (string, error) {
	status := db.StepStatusSkipped
	if r.in.JDPath != "" {
		res, err := r.o.Parser.Parse(ctx, r.in.JDPath)
		if err != nil {
			return "", r.stageFailure(ctx, steps.StateJobDescription, "failed to parse job description", r.files.JD(), OutputJD, db.StepJDDocument, db.CategoryIntake, err)
		}
		r.jd = res
		if err := r.persist(ctx, OutputJD, r.files.JD(), db.StepJDDocument, db.CategoryIntake, res.Document); err != nil {
			return "", err
		}
		r.saveMetadata(ctx, db.StepJDDocument, res)
		r.schemaWarnings(schemafiles.ParsedDocument, res.Document)
		if r.o.Verbose {
			r.printer.PrintParsedDocument(res.Document)
		}
		status = db.StepStatusCompleted
	} else {
		r.res.warn("no job description provided; company research uses the resume")
	}

	var jdDoc *types.ParsedDocument
	if r.jd != nil {
		jdDoc = r.jd.Document
	}
	r.combined = types.NewCombinedDocuments(r.resume.Document, jdDoc)

	if r.in.NotesPath != "" {
		notes, err := r.o.Parser.Parse(ctx, r.in.NotesPath)
		if err != nil {
			r.res.warn(fmt.Sprintf("interview notes were not parsed: %v", err))
		} else {
			r.combined.NotesData = notes.Document.Clone()
			if err := r.persist(ctx, OutputNotes, r.files.Notes(), db.StepNotesDocument, db.CategoryIntake, notes.Document); err != nil {
				return "", err
			}
		}
	}

	if err := r.persist(ctx, OutputCombined, r.files.Combined(), db.StepCombinedDocument, db.CategoryIntake, r.combined); err != nil {
		return "", err
	}
	return status, nil
}

// persistRetrieval indexes the Stage 1 text for Stage 3. Store failures are warnings.
func (r *run) persistRetrieval(ctx context.Context) (string, error) {
	if r.o.Retrieval == nil {
		return db.StepStatusSkipped, nil
	}

	var chunks []retrieval.Chunk
	chunks = append(chunks, retrieval.SplitWords(retrieval.ResumeDocID(r.in.RunID), types.DocTypeResume,
		r.in.RunID, sourceText(r.resume), retrieval.ChunkWords)...)
	if r.jd != nil {
		chunks = append(chunks, retrieval.SplitWords(retrieval.JobDescriptionDocID(r.in.RunID), types.DocTypeJobDescription,
			r.in.RunID, sourceText(r.jd), retrieval.ChunkWords)...)
	}
	if len(chunks) == 0 {
		return db.StepStatusSkipped, nil
	}

	err := retry.Run(ctx, r.sinkPolicy("retrieval upsert"), func(ctx context.Context) error {
		return r.o.Retrieval.Upsert(ctx, r.in.RunID, chunks)
	})
	if err != nil {
		r.res.warn(fmt.Sprintf("retrieval store: %v", err))
		return db.StepStatusFailed, nil
	}
	if r.o.Verbose {
		log.Printf("[RETRIEVAL] stored %d chunks for %s", len(chunks), r.in.RunID)
	}
	return db.StepStatusCompleted, nil
}

// Stage 2.
func (r *run) research(ctx context.Context) (string, error) {
	source := r.resume.Document
	if r.jd != nil {
		source = r.jd.Document
	}

	res, err := r.o.Researcher.Research(ctx, source.Clone(), r.in.CompanyOverride, r.in.RoleOverride)
	if err != nil || res == nil || res.Report == nil {
		if err == nil {
			err = fmt.Errorf("researcher returned no report")
		}
		return "", r.stageFailure(ctx, steps.StateResearch, "failed to research company", r.files.Research(), OutputResearch, db.StepResearchReport, db.CategoryResearch, err)
	}
	r.report = res.Report
	if err := r.persist(ctx, OutputResearch, r.files.Research(), db.StepResearchReport, db.CategoryResearch, res.Report); err != nil {
		return "", err
	}
	r.schemaWarnings(schemafiles.ResearchReport, res.Report)

	if res.Report.IsStub() {
		r.res.warn("company could not be resolved; research report is a stub")
	} else {
		r.res.Company = res.Report.CompanyName
	}
	r.res.Role = types.Deref(res.Report.RoleTitle)
	r.trackUpdate(ctx, db.RunUpdate{Company: r.res.Company, RoleTitle: r.res.Role})

	if r.o.Verbose {
		r.printer.PrintResearchReport(res.Report)
	}
	return db.StepStatusCompleted, nil
}

// Stage 3.
func (r *run) generateQA(ctx context.Context) (string, error) {
	res, err := r.o.Generator.Generate(ctx, qa.Request{
		Combined:   r.combined,
		Report:     r.report.Clone(),
		Rounds:     append([]string(nil), r.in.Rounds...),
		Agent1File: r.files.Combined(),
		Agent2File: r.files.Research(),
		RunID:      r.in.RunID,
	})
	if err != nil || res == nil || res.Set == nil {
		if err == nil {
			err = fmt.Errorf("generator returned no question set")
		}
		return "", r.stageFailure(ctx, steps.StateQA, "failed to generate interview questions", r.files.QA(), OutputQA, db.StepQASet, db.CategoryQA, err)
	}
	r.set = res.Set
	for _, w := range res.Warnings {
		r.res.warn(w)
	}
	if err := r.persist(ctx, OutputQA, r.files.QA(), db.StepQASet, db.CategoryQA, res.Set); err != nil {
		return "", err
	}
	r.schemaWarnings(schemafiles.QASet, res.Set)

	if r.o.Verbose {
		r.printer.PrintQASet(res.Set)
	}
	return db.StepStatusCompleted, nil
}

func (r *run) dispatchRequest() dispatch.Request {
	return dispatch.Request{
		Set:            r.set.Clone(),
		CandidateName:  r.res.CandidateName,
		CandidateEmail: r.res.CandidateEmail,
		PDFPath:        r.files.Pack(),
		ToOverride:     r.in.ToEmail,
		Subject:        r.in.EmailSubject,
	}
}

// Stage 4: the pack, plus one pack per round in per_round mode.
func (r *run) render(ctx context.Context) (string, error) {
	req := r.dispatchRequest()
	r.res.EmailTarget = dispatch.ResolveRecipient(req.ToOverride, req.CandidateEmail)

	if err := r.o.Dispatcher.Render(req); err != nil {
		return "", err
	}
	r.recordFile(ctx, OutputPDF, req.PDFPath, db.StepPackPDF)

	if r.in.PDFMode == PDFModePerRound {
		if r.o.Rounds == nil {
			r.res.warn("per_round PDFs were requested but no round renderer is configured")
			return db.StepStatusCompleted, nil
		}
		for _, round := range r.in.Rounds {
			path := r.files.RoundPack(round)
			if err := r.o.Rounds.RenderRound(r.set.Clone(), round, req.CandidateName, r.res.EmailTarget, path); err != nil {
				r.res.warn(fmt.Sprintf("round pack %q: %v", round, err))
				continue
			}
			r.res.Outputs[outputRoundPDF+rendering.Slug(round)] = path
			r.mirror(ctx, path)
		}
	}
	return db.StepStatusCompleted, nil
}

// Stage 4: e-mail delivery. Failure leaves the rendered pack in place.
func (r *run) dispatch(ctx context.Context) (string, error) {
	if !r.in.SendEmail {
		return db.StepStatusSkipped, nil
	}
	out, err := r.o.Dispatcher.Deliver(ctx, r.dispatchRequest())
	if out != nil {
		r.res.EmailTarget = out.Recipient
	}
	if err != nil {
		r.res.Errors = append(r.res.Errors, err.Error())
		r.res.Status = StatusPartialSuccess
		return db.StepStatusFailed, nil
	}
	r.res.EmailSent = out.Sent
	return db.StepStatusCompleted, nil
}

func (r *run) audit(ctx context.Context) (string, error) {
	if r.o.Audit == nil {
		return db.StepStatusSkipped, nil
	}

	company := r.res.Company
	if company == "" {
		company = r.in.CompanyOverride
	}
	role := r.res.Role
	if role == "" {
		role = r.in.RoleOverride
	}
	rec := types.RunRecord{
		CandidateName:  r.res.CandidateName,
		CandidateEmail: r.res.EmailTarget,
		JobCompany:     company,
		JobRole:        role,
		ResumePath:     r.in.ResumePath,
		JDPath:         r.in.JDPath,
		PDFOutputPath:  r.files.Pack(),
		CreatedAt:      r.o.now().UTC(),
	}
	err := retry.Run(ctx, r.sinkPolicy("audit append"), func(ctx context.Context) error {
		return r.o.Audit.Append(ctx, rec)
	})
	if err != nil {
		r.res.warn(fmt.Sprintf("audit store: %v", err))
		return db.StepStatusFailed, nil
	}
	return db.StepStatusCompleted, nil
}

// finalize writes the run result and closes the run everywhere it is tracked.
func (r *run) finalize(ctx context.Context) {
	r.res.finish(r.o.now())
	r.res.Outputs[OutputResult] = r.files.Result()
	if err := WriteJSON(r.files.Result(), r.res); err != nil {
		r.res.warn(err.Error())
	} else {
		r.mirror(ctx, r.files.Result())
	}

	if r.dbRunID != uuid.Nil {
		if _, err := r.o.Tracker.SaveArtifact(ctx, r.dbRunID, db.StepRunResult, db.CategoryRun, r.res); err != nil {
			log.Printf("Warning: failed to save run result: %v", err)
		}
		if err := r.o.Tracker.CompleteRun(ctx, r.dbRunID, r.res.Status, r.res.ErrorType, r.res.ErrorMessage); err != nil {
			log.Printf("Warning: failed to complete database run: %v", err)
		}
	}

	r.emit(steps.StateDone, fmt.Sprintf("Run %s finished: %s", r.in.RunID, r.res.Status), r.res.Summary())
	fmt.Fprintf(r.o.out(), "Done! Run %s %s in %.2fs.\n", r.in.RunID, r.res.Status, r.res.DurationSec)
}

// stageFailure persists the {error, raw_output|detail} artifact for a failed stage and
// returns the StageError that aborts the run.
func (r *run) stageFailure(ctx context.Context, stage, message, path, key, dbStep, category string, cause error) error {
	se := contract.NewStageError(stage, message, cause)
	if err := r.persist(ctx, key, path, dbStep, category, se.Result()); err != nil {
		r.res.warn(err.Error())
	}
	return se
}

// persist writes an artifact through to the run directory, then mirrors and records it.
// Only the local write can fail the run.
func (r *run) persist(ctx context.Context, key, path, dbStep, category string, v any) error {
	if err := WriteJSON(path, v); err != nil {
		return err
	}
	r.res.Outputs[key] = path
	r.mirror(ctx, path)

	if r.dbRunID != uuid.Nil {
		id, err := r.o.Tracker.SaveArtifact(ctx, r.dbRunID, dbStep, category, v)
		if err != nil {
			r.res.warn(fmt.Sprintf("database: %v", err))
		} else {
			r.artifact = &id
		}
	}
	return nil
}

// recordFile registers a non-JSON artifact.
func (r *run) recordFile(ctx context.Context, key, path, dbStep string) {
	r.res.Outputs[key] = path
	r.mirror(ctx, path)
	if r.dbRunID != uuid.Nil {
		id, err := r.o.Tracker.SaveTextArtifact(ctx, r.dbRunID, dbStep, db.CategoryDelivery, path)
		if err != nil {
			r.res.warn(fmt.Sprintf("database: %v", err))
		} else {
			r.artifact = &id
		}
	}
}

func (r *run) saveMetadata(ctx context.Context, dbStep string, res *parsing.Result) {
	if r.o.Verbose && res.Metadata != nil {
		log.Printf("[PARSE] %s sha256=%s chars=%d", dbStep, res.Metadata.Hash, res.Metadata.Chars)
	}
	if r.dbRunID == uuid.Nil || res.Metadata == nil {
		return
	}
	if _, err := r.o.Tracker.SaveArtifact(ctx, r.dbRunID, dbStep+"_meta", db.CategoryIntake, res.Metadata); err != nil {
		r.res.warn(fmt.Sprintf("database: %v", err))
	}
}

func (r *run) mirror(ctx context.Context, path string) {
	if r.o.Objects == nil {
		return
	}
	err := retry.Run(ctx, r.sinkPolicy("artifact mirror"), func(ctx context.Context) error {
		_, err := storage.MirrorFile(ctx, r.o.Objects, r.in.RunID, path)
		return err
	})
	if err != nil {
		r.res.warn(fmt.Sprintf("object storage: %v", err))
	}
}

func (r *run) schemaWarnings(schema string, v any) {
	for _, w := range schemas.Warnings(schema, v) {
		r.res.warn(w)
	}
}

func (r *run) startTracking(ctx context.Context) {
	if r.o.Tracker == nil {
		return
	}
	id, err := r.o.Tracker.CreateRun(ctx, db.RunInput{
		RunKey:     r.in.RunID,
		ResumePath: r.in.ResumePath,
		JDPath:     r.in.JDPath,
		Rounds:     r.in.Rounds,
	})
	if err != nil {
		r.res.warn(fmt.Sprintf("database: %v", err))
		return
	}
	r.dbRunID = id
	r.res.DatabaseRunID = id.String()
	if r.o.Verbose {
		log.Printf("[VERBOSE] Created database run: %s", id)
	}
}

func (r *run) trackUpdate(ctx context.Context, update db.RunUpdate) {
	if r.dbRunID == uuid.Nil {
		return
	}
	if err := r.o.Tracker.UpdateRun(ctx, r.dbRunID, update); err != nil {
		r.res.warn(fmt.Sprintf("database: %v", err))
	}
}

func (r *run) trackStep(ctx context.Context, state, status string) {
	if r.dbRunID == uuid.Nil {
		return
	}
	_, err := r.o.Tracker.CreateRunStep(ctx, r.dbRunID, &db.RunStepInput{
		Step:     state,
		Category: steps.Category(state),
		Status:   status,
	})
	if err != nil {
		r.res.warn(fmt.Sprintf("database: %v", err))
	}
}

func (r *run) finishStep(ctx context.Context, state, status string, errMsg *string) {
	if r.dbRunID == uuid.Nil {
		return
	}
	if err := r.o.Tracker.UpdateRunStepStatus(ctx, r.dbRunID, state, status, errMsg, r.artifact); err != nil {
		r.res.warn(fmt.Sprintf("database: %v", err))
	}
}

func (r *run) emit(state, message string, content any) {
	if r.o.OnProgress == nil {
		return
	}
	r.o.OnProgress(ProgressEvent{
		Step:     state,
		Category: steps.Category(state),
		Message:  message,
		RunID:    r.in.RunID,
		Content:  content,
	})
}

func (r *run) sinkPolicy(name string) retry.Policy {
	p := r.o.SinkRetry
	if p.Attempts == 0 {
		p = retry.DefaultPolicy(name)
	}
	p.Name = name
	p.Verbose = r.o.Verbose
	return p
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return io.Discard
}

// sourceText is the text indexed for retrieval: the full extraction when available.
func sourceText(res *parsing.Result) string {
	if res == nil {
		return ""
	}
	if res.Text != "" {
		return res.Text
	}
	if res.Document != nil {
		return res.Document.RawTextPreview
	}
	return ""
}
