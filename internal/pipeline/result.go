package pipeline

import (
	"context"
	"errors"
	"math"
	"reflect"
	"time"
	"unicode"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/dispatch"
	"github.com/jonathan/interview-prep/internal/fetch"
	"github.com/jonathan/interview-prep/internal/parsing"
	"github.com/jonathan/interview-prep/internal/rendering"
)

// Run statuses.
const (
	StatusCompleted      = "completed"
	StatusPartialSuccess = "partial_success"
	StatusFailed         = "failed"
)

// StateRecord is the outcome of one pipeline state.
type StateRecord struct {
	State      string  `json:"state"`
	Status     string  `json:"status"`
	DurationMs int64   `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

// Result is the full record of one orchestrator execution.
type Result struct {
	Success        bool              `json:"success"`
	Status         string            `json:"status"`
	RunID          string            `json:"run_id"`
	RunDir         string            `json:"run_dir"`
	CandidateName  string            `json:"candidate_name"`
	CandidateEmail string            `json:"candidate_email"`
	EmailTarget    string            `json:"email_target"`
	EmailSent      bool              `json:"email_sent"`
	Company        string            `json:"company_name,omitempty"`
	Role           string            `json:"role_title,omitempty"`
	Rounds         []string          `json:"interview_rounds"`
	Outputs        map[string]string `json:"outputs"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
	States         []StateRecord     `json:"states"`
	ErrorType      string            `json:"error_type,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	DurationSec    float64           `json:"duration_sec"`
	DatabaseRunID  string            `json:"database_run_id,omitempty"`
}

// Summary is the JSON object printed once per run.
type Summary struct {
	Success        bool              `json:"success"`
	Status         string            `json:"status"`
	RunID          string            `json:"run_id"`
	RunDir         string            `json:"run_dir"`
	CandidateName  string            `json:"candidate_name"`
	CandidateEmail string            `json:"candidate_email"`
	EmailTarget    string            `json:"email_target"`
	EmailSent      bool              `json:"email_sent"`
	Outputs        map[string]string `json:"outputs"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
	DurationSec    float64           `json:"duration_sec"`
}

// FailureSummary is printed instead of Summary when a run fails.
type FailureSummary struct {
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	RunID        string `json:"run_id,omitempty"`
	RunDir       string `json:"run_dir,omitempty"`
}

func newResult(runID, runDir string, rounds []string, start time.Time) *Result {
	return &Result{
		Status:    StatusCompleted,
		RunID:     runID,
		RunDir:    runDir,
		Rounds:    rounds,
		Outputs:   make(map[string]string),
		Errors:    []string{},
		Warnings:  []string{},
		States:    []StateRecord{},
		StartedAt: start,
	}
}

// Summary returns the concise summary of r.
func (r *Result) Summary() Summary {
	return Summary{
		Success:        r.Success,
		Status:         r.Status,
		RunID:          r.RunID,
		RunDir:         r.RunDir,
		CandidateName:  r.CandidateName,
		CandidateEmail: r.CandidateEmail,
		EmailTarget:    r.EmailTarget,
		EmailSent:      r.EmailSent,
		Outputs:        r.Outputs,
		Errors:         r.Errors,
		Warnings:       r.Warnings,
		DurationSec:    r.DurationSec,
	}
}

// Report returns the object to print for r: a Summary, or a FailureSummary when the run failed.
func (r *Result) Report() any {
	if r.Status == StatusFailed {
		return FailureSummary{
			Status:       r.Status,
			ErrorType:    r.ErrorType,
			ErrorMessage: r.ErrorMessage,
			RunID:        r.RunID,
			RunDir:       r.RunDir,
		}
	}
	return r.Summary()
}

// ExitCode is 0 for completed and partial_success runs, 1 otherwise.
func (r *Result) ExitCode() int {
	if r != nil && r.Success {
		return 0
	}
	return 1
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) fail(err error) {
	r.Success = false
	r.Status = StatusFailed
	r.ErrorType = ErrorType(err)
	r.ErrorMessage = err.Error()
	r.Errors = append(r.Errors, err.Error())
}

func (r *Result) finish(now time.Time) {
	if r.Status != StatusFailed {
		r.Success = true
	}
	r.DurationSec = math.Round(now.Sub(r.StartedAt).Seconds()*100) / 100
}

// ErrorType names the most specific known error in err's chain.
func ErrorType(err error) string {
	var (
		inputErr    *InputError
		apiErr      *parsing.APICallError
		parseErr    *parsing.ParseError
		extractErr  *parsing.ExtractionError
		failure     *contract.Failure
		renderErr   *rendering.RenderError
		dispatchErr *dispatch.DispatchError
		configErr   *dispatch.ConfigError
		fetchErr    *fetch.Error
		stageErr    *contract.StageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return "InputError"
	case errors.Is(err, context.DeadlineExceeded):
		return "TimeoutError"
	case errors.Is(err, context.Canceled):
		return "CanceledError"
	case errors.As(err, &configErr):
		return "ConfigError"
	case errors.As(err, &dispatchErr):
		return "DispatchError"
	case errors.As(err, &renderErr):
		return "RenderError"
	case errors.As(err, &failure):
		return "RecoveryError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &apiErr):
		return "APICallError"
	case errors.As(err, &extractErr):
		return "ExtractionError"
	case errors.As(err, &fetchErr):
		return "FetchError"
	case errors.As(err, &stageErr):
		return "StageError"
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" && unicode.IsUpper(rune(name[0])) {
		return name
	}
	return "Error"
}
