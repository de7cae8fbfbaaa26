package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PDF modes.
const (
	PDFModeSingle   = "single"
	PDFModePerRound = "per_round"
)

// RunIDLayout is the timestamp layout of generated run ids.
const RunIDLayout = "20060102_150405"

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// Input is everything one orchestrator execution needs.
type Input struct {
	ResumePath      string   `flag:"resume" validate:"required"`
	JDPath          string   `flag:"jd"`
	NotesPath       string   `flag:"notes"`
	Rounds          []string `flag:"interview-rounds" validate:"min=1,dive,required"`
	CompanyOverride string   `flag:"company"`
	RoleOverride    string   `flag:"role"`
	OutputDir       string   `flag:"output-dir" validate:"required"`
	RunID           string   `flag:"run-id"`
	PDFMode         string   `flag:"pdf-mode" validate:"omitempty,oneof=single per_round"`
	SendEmail       bool     `flag:"send-email"`
	ToEmail         string   `flag:"to-email" validate:"omitempty,email"`
	EmailSubject    string   `flag:"email-subject"`
}

// InputError is a problem with the run input, detected before any external call.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate reports the first problem with in as an *InputError.
func (in *Input) Validate() error {
	if err := inputValidator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return inputError(verrs[0])
		}
		return &InputError{Message: err.Error()}
	}
	if in.RunID != "" && (!runIDPattern.MatchString(in.RunID) || strings.Contains(in.RunID, "..")) {
		return &InputError{Field: "run-id", Message: "may only contain letters, digits, '.', '_' and '-'"}
	}
	return nil
}

func inputError(fe validator.FieldError) *InputError {
	field := fe.Field()
	if strings.HasPrefix(field, "interview-rounds") {
		field = "interview-rounds"
	}
	switch fe.Tag() {
	case "required":
		if field == "interview-rounds" {
			return &InputError{Field: field, Message: "rounds must not be empty"}
		}
		return &InputError{Field: field, Message: "is required"}
	case "min":
		return &InputError{Field: field, Message: "at least one interview round is required; use --interview-rounds or --round"}
	case "oneof":
		return &InputError{Field: field, Message: fmt.Sprintf("must be one of [%s]", fe.Param())}
	case "email":
		return &InputError{Field: field, Message: "must be a valid email address"}
	}
	return &InputError{Field: field, Message: fmt.Sprintf("is invalid (%s)", fe.Tag())}
}

// ParseRounds merges repeated single-round values with a delimited list. The list is split
// on ';', ',' and newlines. Blank entries are dropped and duplicates removed, keeping the
// first occurrence.
func ParseRounds(single []string, list string) []string {
	var parsed []string
	for _, r := range single {
		if r = strings.TrimSpace(r); r != "" {
			parsed = append(parsed, r)
		}
	}

	list = strings.ReplaceAll(list, "\r", "\n")
	for _, part := range strings.FieldsFunc(list, func(r rune) bool {
		return r == ';' || r == ',' || r == '\n'
	}) {
		if p := strings.TrimSpace(part); p != "" {
			parsed = append(parsed, p)
		}
	}

	seen := make(map[string]bool, len(parsed))
	rounds := make([]string, 0, len(parsed))
	for _, r := range parsed {
		if !seen[r] {
			seen[r] = true
			rounds = append(rounds, r)
		}
	}
	return rounds
}

// NewRunID returns the timestamp run id for t.
func NewRunID(t time.Time) string {
	return t.Format(RunIDLayout)
}
