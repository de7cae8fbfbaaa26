// Package types provides type definitions for the structured artifacts passed between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Document types recognised by Stage 1.
const (
	DocTypeResume         = "resume"
	DocTypeJobDescription = "job_description"
	DocTypeInterviewNotes = "interview_notes"
	DocTypePolicy         = "policy"
	DocTypeUnknown        = "unknown"
	DocTypeCombined       = "combined_resume_and_jd"
)

// PreviewLimit is the maximum number of runes kept in RawTextPreview.
const PreviewLimit = 1200

// TruncatePreview caps s at PreviewLimit runes, marking a cut with a trailing ellipsis.
func TruncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewLimit {
		return s
	}
	return string(runes[:PreviewLimit]) + "…"
}

// ParsedDocument is the Stage 1 summary of a single input file.
type ParsedDocument struct {
	FilePath       string              `json:"file_path"`
	DocType        string              `json:"doc_type"`
	Summary        string              `json:"summary"`
	KeyPoints      []string            `json:"key_points"`
	Entities       map[string][]string `json:"entities"`
	RawTextPreview string              `json:"raw_text_preview"`
}

// Clone returns a deep copy so downstream stages cannot mutate the producer's record.
func (d *ParsedDocument) Clone() *ParsedDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.KeyPoints = append([]string(nil), d.KeyPoints...)
	if d.Entities != nil {
		out.Entities = make(map[string][]string, len(d.Entities))
		for k, v := range d.Entities {
			out.Entities[k] = append([]string(nil), v...)
		}
	}
	return &out
}

// IsKnownDocType reports whether t is one of the Stage 1 document types.
func IsKnownDocType(t string) bool {
	switch t {
	case DocTypeResume, DocTypeJobDescription, DocTypeInterviewNotes, DocTypePolicy, DocTypeUnknown:
		return true
	}
	return false
}

// CombinedDocuments is the Stage 1 artifact handed to Stage 3: the resume and JD side by side.
type CombinedDocuments struct {
	DocType    string          `json:"doc_type"`
	ResumeData *ParsedDocument `json:"resume_data"`
	JDData     *ParsedDocument `json:"jd_data"`
	NotesData  *ParsedDocument `json:"notes_data,omitempty"`
}

// NewCombinedDocuments pairs copies of the resume and JD documents.
func NewCombinedDocuments(resume, jd *ParsedDocument) *CombinedDocuments {
	return &CombinedDocuments{
		DocType:    DocTypeCombined,
		ResumeData: resume.Clone(),
		JDData:     jd.Clone(),
	}
}
