// Package rendering lays out a QASet as the printable Interview Q&A Pack PDF.
package rendering

import "fmt"

// RenderError represents a general rendering failure
type RenderError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	prefix := "render error"
	if e.Path != "" {
		prefix = fmt.Sprintf("render error (%s)", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
