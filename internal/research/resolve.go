package research

import (
	"regexp"
	"strings"

	"github.com/jonathan/interview-prep/internal/types"
)

var (
	rolePattern    = regexp.MustCompile(`(?i)\b(role|position|title)\s*[:\-]\s*([A-Za-z0-9 /&\-\(\)]+)`)
	companyPattern = regexp.MustCompile(`(?i)\bcompany\s*[:\-]\s*([A-Za-z0-9 .&\-\(\)]+)`)
)

// CompanyEntityKeys are the entity labels checked for the hiring company, in order.
var CompanyEntityKeys = []string{"Hiring Company", "Company", "Companies", "company", "companies"}

// Resolution is the company and role Stage 2 researches. Empty means unresolved.
type Resolution struct {
	CompanyName string
	RoleTitle   string
}

// ResolveCompanyAndRole decides which company and role to research. Overrides win.
// A resume never yields a company since its employers are past ones; a job description
// yields one from its company entity groups or a "Company:" line in the preview.
func ResolveCompanyAndRole(doc *types.ParsedDocument, companyOverride, roleOverride string) Resolution {
	res := Resolution{
		CompanyName: strings.TrimSpace(companyOverride),
		RoleTitle:   strings.TrimSpace(roleOverride),
	}
	if doc == nil {
		return res
	}

	if res.RoleTitle == "" {
		if m := rolePattern.FindStringSubmatch(doc.RawTextPreview); m != nil {
			res.RoleTitle = strings.TrimSpace(m[2])
		}
	}

	if res.CompanyName != "" || doc.DocType == types.DocTypeResume {
		return res
	}

	for _, key := range CompanyEntityKeys {
		if company := firstNonEmpty(doc.Entities[key]); company != "" {
			res.CompanyName = company
			return res
		}
	}
	if m := companyPattern.FindStringSubmatch(doc.RawTextPreview); m != nil {
		res.CompanyName = strings.TrimSpace(m[1])
	}
	return res
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
