package types

import "time"

// RunRecord is the append-only audit row written once per orchestrator execution.
type RunRecord struct {
	CandidateName  string    `json:"candidate_name,omitempty"`
	CandidateEmail string    `json:"candidate_email,omitempty"`
	JobCompany     string    `json:"job_company,omitempty"`
	JobRole        string    `json:"job_role,omitempty"`
	ResumePath     string    `json:"resume_path"`
	JDPath         string    `json:"jd_path"`
	PDFOutputPath  string    `json:"pdf_output_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
