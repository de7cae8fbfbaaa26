// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/interview-prep/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, ending in "..." when cut.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// writeList appends up to limit items of values under heading.
func writeList(sb *strings.Builder, heading string, values []string, limit int) {
	if len(values) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(values), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", values[i]))
	}
	if len(values) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(values)-limit))
	}
	sb.WriteString("\n")
}

// PrintParsedDocument outputs a summary of a Stage 1 document.
func (p *Printer) PrintParsedDocument(doc *types.ParsedDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:     %s\n", doc.FilePath))
	sb.WriteString(fmt.Sprintf("Type:     %s\n", doc.DocType))
	sb.WriteString(fmt.Sprintf("Preview:  %d chars\n", len([]rune(doc.RawTextPreview))))
	sb.WriteString("\n")

	if doc.Summary != "" {
		sb.WriteString(doc.Summary + "\n\n")
	}
	writeList(&sb, "Key Points", doc.KeyPoints, maxItemsToShow)

	if len(doc.Entities) > 0 {
		keys := make([]string, 0, len(doc.Entities))
		for k := range doc.Entities {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("Entities:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", k, len(doc.Entities[k])))
		}
	}

	p.printBox("PARSED DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResearchReport outputs the company research highlights.
func (p *Printer) PrintResearchReport(report *types.ResearchReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", report.CompanyName))
	if role := types.Deref(report.RoleTitle); role != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", role))
	}
	sb.WriteString(fmt.Sprintf("Sources:  %d\n", len(report.Sources)))
	sb.WriteString("\n")

	writeList(&sb, "Mission & Values", report.MissionValues, 3)
	writeList(&sb, "Interview Focus", report.InterviewFocus, 3)

	if len(report.RecentNews) > 0 {
		sb.WriteString(fmt.Sprintf("Recent News: %d items\n", len(report.RecentNews)))
	}
	if notes := types.Deref(report.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("Notes: %s\n", notes))
	}

	p.printBox("COMPANY RESEARCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQASet outputs question counts per round and the first shortlist entries.
func (p *Printer) PrintQASet(set *types.QASet) {
	if set == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Top 30:   %d items\n", len(set.Top30)))
	sb.WriteString(fmt.Sprintf("Top 20:   %d questions\n", len(set.Top20Questions)))
	sb.WriteString("\n")

	var order []string
	counts := make(map[string]int)
	for _, item := range set.Top30 {
		if _, ok := counts[item.Round]; !ok {
			order = append(order, item.Round)
		}
		counts[item.Round]++
	}
	if len(order) > 0 {
		sb.WriteString("By Round:\n")
		for _, round := range order {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", round, counts[round]))
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Shortlist", set.Top20Questions, maxItemsToShow)

	if len(set.Notes) > 0 {
		sb.WriteString("Notes:\n")
		for _, note := range set.Notes {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", note))
		}
	}

	p.printBox("INTERVIEW Q&A SET", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWarnings outputs schema and collaborator warnings, or a clean marker.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO WARNINGS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d warnings:\n\n", len(warnings)))
	for i, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s", w))
		if i < len(warnings)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("WARNINGS", sb.String())
}
