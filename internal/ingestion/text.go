package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLines  = regexp.MustCompile(`\n\n\n+`)
	bulletGlyph = regexp.MustCompile(`^[•·▪◦●]\s*`)
)

// CleanText normalizes line endings and whitespace while keeping headings, bullets and
// paragraph breaks. At most one blank line separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine keeps leading indentation, collapses inner whitespace and rewrites
// typographic bullets as "- ".
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t ")
	trimmed := strings.TrimLeft(line, " \t ")
	if trimmed == "" {
		return ""
	}

	indent := len(line) - len(trimmed)
	trimmed = bulletGlyph.ReplaceAllString(trimmed, "- ")
	trimmed = innerSpace.ReplaceAllString(trimmed, " ")
	if indent > 0 && !strings.HasPrefix(trimmed, "#") {
		return strings.Repeat(" ", indent) + trimmed
	}
	return trimmed
}

// Truncate caps s at limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
