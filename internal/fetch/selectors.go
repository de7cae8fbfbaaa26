package fetch

import (
	"net/url"
	"strings"
)

// Selectors pick the content region of a page and the noise to strip before reading it.
type Selectors struct {
	Content []string
	Noise   []string
}

var formNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".voluntary-disclosure",
	".social-share",
	".cookie-consent",
	".gdpr-notice",
}

// CompanyPage selectors suit about, values and news pages read during research.
func CompanyPage() Selectors {
	return Selectors{
		Content: []string{"main", "article", ".about-content", ".content", "#content"},
		Noise:   []string{".cookie-consent", ".gdpr-notice", ".social-share", ".newsletter"},
	}
}

// JobPosting selects the description region of a job page. Greenhouse, Lever and Workday
// hosts get their own selectors.
func JobPosting(pageURL string) Selectors {
	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = strings.ToLower(u.Host)
	}

	switch {
	case strings.Contains(host, "greenhouse.io"):
		return Selectors{
			Content: []string{".job__description", "#content", ".job-post-container"},
			Noise:   append(formNoise, ".application--wrapper", "#usa_self_id_section"),
		}
	case strings.Contains(host, "lever.co"):
		return Selectors{
			Content: []string{".posting-page", ".posting-description", ".content"},
			Noise:   append(formNoise, ".posting-apply", ".apply-section"),
		}
	case strings.Contains(host, "workday.com"), strings.Contains(host, "myworkdayjobs.com"):
		return Selectors{
			Content: []string{"[data-automation-id='jobDescription']", ".job-description"},
			Noise:   append(formNoise, "[data-automation-id='applyButton']"),
		}
	}
	return Selectors{
		Content: []string{".job-description", "#job-description", ".job-details", "[data-testid='job-description']", "main", "article", "#content"},
		Noise:   formNoise,
	}
}
