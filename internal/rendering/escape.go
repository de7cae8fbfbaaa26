package rendering

import "strings"

// NormalizeText maps typographic characters that the PDF core fonts cannot show onto
// plain equivalents. Runes outside Latin-1 that have no mapping become '?'.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '‘', '’', '‚', '′':
			result.WriteByte('\'')
		case '“', '”', '„', '″':
			result.WriteByte('"')
		case '\u2010', '\u2011', '\u2012', '–', '—', '\u2015', '\u2212':
			result.WriteByte('-')
		case '•', '●', '▪', '‣', '⁃':
			result.WriteByte('-')
		case '…':
			result.WriteString("...")
		case '\u00a0', '\u2002', '\u2003', '\u2009', '\u202f':
			result.WriteByte(' ')
		case '\u200b', '\ufeff', '\r':
		case '\t':
			result.WriteString("    ")
		case '→':
			result.WriteString("->")
		case '←':
			result.WriteString("<-")
		default:
			if r > 0xFF {
				result.WriteByte('?')
			} else {
				result.WriteRune(r)
			}
		}
	}

	return result.String()
}

// Slug turns a round name into a file-name fragment: lower-case ASCII letters and
// digits separated by single underscores.
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "round"
	}
	return b.String()
}
