// Package steps provides the state definitions and dependency validation for the
// interview preparation pipeline.
package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	dbpkg "github.com/jonathan/interview-prep/internal/db"
)

// Pipeline states in execution order.
const (
	StateInit             = "INIT"
	StateResume           = "STAGE1_RESUME"
	StateJobDescription   = "STAGE1_JD"
	StatePersistRetrieval = "PERSIST_RETRIEVAL"
	StateResearch         = "STAGE2"
	StateQA               = "STAGE3"
	StateRender           = "STAGE4_RENDER"
	StateDispatch         = "STAGE4_DISPATCH"
	StateAudit            = "AUDIT"
	StateDone             = "DONE"
)

// StepDefinition defines metadata for a pipeline state
type StepDefinition struct {
	Name         string
	Category     string
	Label        string
	Dependencies []string
	Optional     []string
}

// Order lists every state from INIT to DONE.
var Order = []string{
	StateInit,
	StateResume,
	StateJobDescription,
	StatePersistRetrieval,
	StateResearch,
	StateQA,
	StateRender,
	StateDispatch,
	StateAudit,
	StateDone,
}

// StepRegistry holds the definitions of the working states. INIT and DONE are bookkeeping
// states and have no definition.
var StepRegistry = map[string]StepDefinition{
	StateResume: {
		Name:     StateResume,
		Category: dbpkg.StepCategoryIngestion,
		Label:    "Parsing resume",
	},
	StateJobDescription: {
		Name:         StateJobDescription,
		Category:     dbpkg.StepCategoryIngestion,
		Label:        "Parsing job description",
		Dependencies: []string{StateResume},
	},
	StatePersistRetrieval: {
		Name:         StatePersistRetrieval,
		Category:     dbpkg.StepCategoryRetrieval,
		Label:        "Indexing documents for retrieval",
		Dependencies: []string{StateResume},
		Optional:     []string{StateJobDescription},
	},
	StateResearch: {
		Name:         StateResearch,
		Category:     dbpkg.StepCategoryResearch,
		Label:        "Researching company",
		Dependencies: []string{StateResume},
		Optional:     []string{StateJobDescription},
	},
	StateQA: {
		Name:         StateQA,
		Category:     dbpkg.StepCategoryQA,
		Label:        "Generating interview questions",
		Dependencies: []string{StateResearch},
		Optional:     []string{StatePersistRetrieval},
	},
	StateRender: {
		Name:         StateRender,
		Category:     dbpkg.StepCategoryDelivery,
		Label:        "Rendering Q&A pack",
		Dependencies: []string{StateQA},
	},
	StateDispatch: {
		Name:         StateDispatch,
		Category:     dbpkg.StepCategoryDelivery,
		Label:        "Sending Q&A pack",
		Dependencies: []string{StateRender},
	},
	StateAudit: {
		Name:         StateAudit,
		Category:     dbpkg.StepCategoryAudit,
		Label:        "Recording audit entry",
		Dependencies: []string{StateRender},
		Optional:     []string{StateDispatch},
	},
}

// Position returns the 1-based position of a working state and the number of working states.
func Position(state string) (int, int) {
	total := len(Order) - 2
	for i, s := range Order[1 : len(Order)-1] {
		if s == state {
			return i + 1, total
		}
	}
	return 0, total
}

// Category returns the category of state, or "" for bookkeeping states.
func Category(state string) string {
	return StepRegistry[state].Category
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Ready checks the required dependencies of stepName against known step statuses.
func Ready(stepName string, statuses map[string]string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if statuses[dep] != dbpkg.StepStatusCompleted {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// StepReader reads persisted run steps.
type StepReader interface {
	GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*dbpkg.RunStep, error)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(ctx context.Context, reader StepReader, runID uuid.UUID, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	statuses := make(map[string]string, len(def.Dependencies))
	for _, dep := range def.Dependencies {
		step, err := reader.GetRunStep(ctx, runID, dep)
		if err != nil {
			return fmt.Errorf("failed to check dependency %s: %w", dep, err)
		}
		if step != nil {
			statuses[dep] = step.Status
		}
	}
	return Ready(stepName, statuses)
}

// GetBlockedSteps returns the working states whose dependencies are not met in statuses
// and that have not finished yet.
func GetBlockedSteps(statuses map[string]string) []string {
	var blocked []string
	for _, name := range Order {
		if _, ok := StepRegistry[name]; !ok {
			continue
		}
		if dbpkg.IsTerminal(statuses[name]) || statuses[name] == dbpkg.StepStatusInProgress {
			continue
		}
		if err := Ready(name, statuses); err != nil {
			blocked = append(blocked, name)
		}
	}
	return blocked
}
