// Package contact pulls a candidate's e-mail address and display name out of a parsed document.
package contact

import (
	"regexp"
	"strings"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/types"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Top-level fields checked before any entity group, in order.
var (
	emailFields = []string{"email", "candidate_email", "contact_email", "e-mail"}
	nameFields  = []string{"name", "candidate_name", "full_name"}
)

// ContactGroups are the entity labels searched before the full entity scan, in order.
var ContactGroups = []string{"Contact Information", "contact_information", "contact info", "contact"}

// Contact is the best-effort result of Extract. Either field may be empty.
type Contact struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// FindEmail returns the first e-mail address in s, or "".
func FindEmail(s string) string {
	return emailPattern.FindString(s)
}

// Extract resolves contact details from a decoded Stage 1 record. It never fails;
// missing details come back empty.
func Extract(record map[string]any) Contact {
	if record == nil {
		return Contact{}
	}
	entities, _ := record["entities"].(map[string]any)
	preview := contract.AsString(record["raw_text_preview"])

	return Contact{
		Email: resolveEmail(record, entities, preview),
		Name:  resolveName(record, preview),
	}
}

// FromDocument is Extract for a typed ParsedDocument.
func FromDocument(doc *types.ParsedDocument) Contact {
	if doc == nil {
		return Contact{}
	}
	entities := make(map[string]any, len(doc.Entities))
	for k, v := range doc.Entities {
		entities[k] = v
	}
	return Extract(map[string]any{
		"entities":         entities,
		"raw_text_preview": doc.RawTextPreview,
	})
}

func resolveEmail(record, entities map[string]any, preview string) string {
	for _, field := range emailFields {
		if email := FindEmail(contract.AsString(record[field])); email != "" {
			return email
		}
	}

	for _, group := range ContactGroups {
		if values, ok := entities[group]; ok {
			if email := contract.FindString(values, FindEmail); email != "" {
				return email
			}
		}
	}

	if email := contract.FindString(entities, FindEmail); email != "" {
		return email
	}

	return FindEmail(preview)
}

func resolveName(record map[string]any, preview string) string {
	for _, field := range nameFields {
		if name := strings.TrimSpace(contract.AsString(record[field])); name != "" {
			return name
		}
	}

	preview = strings.TrimLeft(preview, " \t\r\n")
	if preview == "" {
		return ""
	}
	firstLine, _, _ := strings.Cut(preview, "\n")
	name, _, _ := strings.Cut(firstLine, "|")
	return strings.TrimSpace(name)
}
