// Package contract recovers and enforces the JSON contracts exchanged between pipeline stages.
package contract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^\\s*```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// Failure is returned by Recover when no JSON object could be extracted.
// Raw holds the text exactly as it was passed in.
type Failure struct {
	Raw string
}

func (f *Failure) Error() string {
	return "failed to parse JSON from model output"
}

// Result converts the failure into the {error, raw_output} artifact shape.
func (f *Failure) Result() ErrorResult {
	return ErrorResult{Error: f.Error(), RawOutput: f.Raw}
}

// StripFences removes a single leading and trailing code fence, optionally tagged json.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Recover extracts a single JSON object from free-form model output.
//
// The fence-stripped text is parsed directly first; failing that, the span from the
// first '{' to the last '}' is parsed. The span is greedy, so two sibling objects in
// one reply will not parse. Any other outcome is a *Failure carrying the input text.
func Recover(text string) (map[string]any, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, &Failure{Raw: text}
	}

	if obj, ok := parseObject(cleaned); ok {
		return obj, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if obj, ok := parseObject(cleaned[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, &Failure{Raw: text}
}

// RecoverInto runs Recover and decodes the object into out.
// The recovered object is returned as well so callers can inspect fields that out drops.
func RecoverInto(text string, out any) (map[string]any, error) {
	obj, err := Recover(text)
	if err != nil {
		return nil, err
	}
	if err := Decode(obj, out); err != nil {
		return obj, err
	}
	return obj, nil
}

// Decode re-encodes a recovered object into a typed value.
func Decode(obj map[string]any, out any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
