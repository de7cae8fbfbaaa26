package contract

import (
	"errors"
	"fmt"
)

// ErrorResult is the artifact written in place of a stage output that could not be produced.
type ErrorResult struct {
	Error     string `json:"error"`
	RawOutput any    `json:"raw_output,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// StageError is a collaborator or contract failure caught at a stage boundary.
// It carries enough to persist an ErrorResult before the run aborts.
type StageError struct {
	Stage     string
	Message   string
	RawOutput any
	Cause     error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Result converts the error into the {error, raw_output|detail} artifact shape.
func (e *StageError) Result() ErrorResult {
	res := ErrorResult{Error: e.Message, RawOutput: e.RawOutput}
	if e.Cause != nil {
		res.Detail = e.Cause.Error()
	}
	return res
}

// NewStageError wraps cause as a StageError for stage.
func NewStageError(stage, message string, cause error) *StageError {
	se := &StageError{Stage: stage, Message: message, Cause: cause}
	var f *Failure
	if errors.As(cause, &f) {
		se.RawOutput = f.Raw
	}
	return se
}
