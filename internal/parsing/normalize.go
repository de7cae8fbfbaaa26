package parsing

import (
	"strings"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/types"
)

// docTypeAliases maps loose labels a model sometimes emits to the canonical doc types.
var docTypeAliases = map[string]string{
	"cv":               types.DocTypeResume,
	"curriculum_vitae": types.DocTypeResume,
	"jd":               types.DocTypeJobDescription,
	"job_posting":      types.DocTypeJobDescription,
	"job_post":         types.DocTypeJobDescription,
	"notes":            types.DocTypeInterviewNotes,
}

// NormalizeDocType lower-cases and snake-cases t, resolves aliases and maps anything
// unrecognised to "unknown".
func NormalizeDocType(t string) string {
	n := strings.ToLower(strings.TrimSpace(t))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if alias, ok := docTypeAliases[n]; ok {
		return alias
	}
	if types.IsKnownDocType(n) {
		return n
	}
	return types.DocTypeUnknown
}

// DocumentFromRecord builds a ParsedDocument from a recovered JSON object, tolerating the
// shapes models produce: entity groups as strings, lists or nested objects, and key
// points as a single string.
func DocumentFromRecord(obj map[string]any) *types.ParsedDocument {
	doc := &types.ParsedDocument{
		FilePath:       contract.AsString(obj["file_path"]),
		DocType:        NormalizeDocType(contract.AsString(obj["doc_type"])),
		Summary:        strings.TrimSpace(contract.AsString(obj["summary"])),
		KeyPoints:      contract.AsStringSlice(obj["key_points"]),
		Entities:       map[string][]string{},
		RawTextPreview: contract.AsString(obj["raw_text_preview"]),
	}
	if doc.KeyPoints == nil {
		doc.KeyPoints = []string{}
	}

	if groups, ok := obj["entities"].(map[string]any); ok {
		for label, v := range groups {
			var values []string
			contract.Walk(v, func(s string) bool {
				if s = strings.TrimSpace(s); s != "" {
					values = append(values, s)
				}
				return true
			})
			if len(values) > 0 {
				doc.Entities[label] = values
			}
		}
	}
	return doc
}

// finalize applies the invariants every Stage 1 document carries regardless of what the
// model returned.
func finalize(doc *types.ParsedDocument, path, text string) *types.ParsedDocument {
	doc.FilePath = path
	doc.DocType = NormalizeDocType(doc.DocType)
	if strings.TrimSpace(doc.RawTextPreview) == "" {
		doc.RawTextPreview = text
	}
	doc.RawTextPreview = types.TruncatePreview(doc.RawTextPreview)
	if doc.KeyPoints == nil {
		doc.KeyPoints = []string{}
	}
	if doc.Entities == nil {
		doc.Entities = map[string][]string{}
	}
	return doc
}

// Stub is the document returned for inputs with no readable content.
func Stub(path string) *types.ParsedDocument {
	return &types.ParsedDocument{
		FilePath:       path,
		DocType:        types.DocTypeUnknown,
		Summary:        UnsupportedSummary,
		KeyPoints:      []string{},
		Entities:       map[string][]string{},
		RawTextPreview: "",
	}
}
