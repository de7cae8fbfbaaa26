package types

// UnknownCompany is the company name used by stub research reports.
const UnknownCompany = "unknown"

// NewsItem is a single recent news entry in a ResearchReport.
type NewsItem struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Date    *string `json:"date"`
	URL     string  `json:"url"`
	Summary string  `json:"summary"`
}

// ResearchReport is the Stage 2 company research output.
type ResearchReport struct {
	CompanyName      string     `json:"company_name"`
	RoleTitle        *string    `json:"role_title"`
	Overview         string     `json:"overview"`
	MissionValues    []string   `json:"mission_values"`
	ProductsServices []string   `json:"products_services"`
	BusinessModel    []string   `json:"business_model"`
	InterviewFocus   []string   `json:"interview_focus"`
	InterviewProcess []string   `json:"interview_process"`
	RecentNews       []NewsItem `json:"recent_news"`
	Sources          []string   `json:"sources"`
	Notes            *string    `json:"notes"`
}

// IsStub reports whether the report was produced without research.
func (r *ResearchReport) IsStub() bool {
	return r == nil || r.CompanyName == UnknownCompany
}

// Clone returns a deep copy of the report.
func (r *ResearchReport) Clone() *ResearchReport {
	if r == nil {
		return nil
	}
	out := *r
	out.RoleTitle = cloneStringPtr(r.RoleTitle)
	out.Notes = cloneStringPtr(r.Notes)
	out.MissionValues = append([]string(nil), r.MissionValues...)
	out.ProductsServices = append([]string(nil), r.ProductsServices...)
	out.BusinessModel = append([]string(nil), r.BusinessModel...)
	out.InterviewFocus = append([]string(nil), r.InterviewFocus...)
	out.InterviewProcess = append([]string(nil), r.InterviewProcess...)
	out.Sources = append([]string(nil), r.Sources...)
	out.RecentNews = make([]NewsItem, len(r.RecentNews))
	for i, n := range r.RecentNews {
		n.Date = cloneStringPtr(n.Date)
		out.RecentNews[i] = n
	}
	return &out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the value of p or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
