// Package schemas embeds the JSON Schemas of the pipeline artifacts.
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var files embed.FS

// Schema names.
const (
	ParsedDocument = "parsed_document"
	ResearchReport = "research_report"
	QASet          = "qa_set"
)

// Names lists every embedded schema.
func Names() []string {
	return []string{ParsedDocument, ResearchReport, QASet}
}

// Load returns the raw schema document for name.
func Load(name string) ([]byte, error) {
	data, err := files.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}
	return data, nil
}
