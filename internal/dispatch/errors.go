// Package dispatch implements Stage 4: rendering the pack and delivering it by e-mail.
package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoRecipient is returned when delivery is requested but no address is known.
var ErrNoRecipient = errors.New("no recipient email found: pass --to-email or include an email in the resume")

// DispatchError is a delivery failure. The rendered pack is unaffected.
type DispatchError struct {
	Recipient string
	Message   string
	Cause     error
}

func (e *DispatchError) Error() string {
	msg := "dispatch error"
	if e.Recipient != "" {
		msg = fmt.Sprintf("dispatch error (to %s)", e.Recipient)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// ConfigError reports missing mail settings.
type ConfigError struct {
	Fields []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: missing mail settings: %v", e.Fields)
}
