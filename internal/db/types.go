package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values, shared with the run result.
const (
	RunStatusRunning        = "running"
	RunStatusCompleted      = "completed"
	RunStatusPartialSuccess = "partial_success"
	RunStatusFailed         = "failed"
)

// Run represents a pipeline run record
type Run struct {
	ID             uuid.UUID  `json:"id"`
	RunKey         string     `json:"run_key"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	CandidateEmail string     `json:"candidate_email,omitempty"`
	Company        string     `json:"company,omitempty"`
	RoleTitle      string     `json:"role_title,omitempty"`
	ResumePath     string     `json:"resume_path"`
	JDPath         string     `json:"jd_path,omitempty"`
	Rounds         []string   `json:"rounds"`
	Status         string     `json:"status"`
	ErrorType      string     `json:"error_type,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunInput holds the values known when a run starts.
type RunInput struct {
	RunKey     string
	ResumePath string
	JDPath     string
	Rounds     []string
}

// RunUpdate holds the values learned while a run progresses. Empty fields are left unchanged.
type RunUpdate struct {
	CandidateName  string
	CandidateEmail string
	Company        string
	RoleTitle      string
}

// ArtifactStep constants for known artifact types
const (
	StepResumeDocument   = "agent1_resume"
	StepJDDocument       = "agent1_jd"
	StepNotesDocument    = "agent1_notes"
	StepCombinedDocument = "agent1_combined"
	StepResearchReport   = "agent2"
	StepQASet            = "agent3"
	StepPackPDF          = "interview_qa_pack"
	StepRunResult        = "run_result"
)

// Artifact categories
const (
	CategoryIntake   = "intake"
	CategoryResearch = "research"
	CategoryQA       = "qa"
	CategoryDelivery = "delivery"
	CategoryRun      = "run"
)

// Artifact represents an artifact record
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     any       `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Company string
	Status  string
	Limit   int
}
