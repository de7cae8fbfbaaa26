package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runStepColumns = `id, run_id, step, category, status, started_at, completed_at,
	duration_ms, artifact_id, error_message, parameters, created_at, updated_at`

// scanRunStep reads one row selected with runStepColumns.
func scanRunStep(row pgx.Row) (*RunStep, error) {
	var step RunStep
	var params []byte
	if err := row.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs, &step.ArtifactID,
		&step.ErrorMessage, &params, &step.CreatedAt, &step.UpdatedAt); err != nil {
		return nil, err
	}
	if params != nil {
		_ = json.Unmarshal(params, &step.Parameters)
	}
	return &step, nil
}

// CreateRunStep records a pipeline state for runID. Re-running a state resets its row, and a
// state created in_progress starts its clock immediately.
func (db *DB) CreateRunStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) (*RunStep, error) {
	var params []byte
	if input.Parameters != nil {
		var err error
		if params, err = json.Marshal(input.Parameters); err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
	}

	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, parameters, started_at)
		 VALUES ($1, $2, $3, $4, $5, CASE WHEN $4 = 'in_progress' THEN NOW() END)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = EXCLUDED.status, parameters = EXCLUDED.parameters,
		     started_at = EXCLUDED.started_at, completed_at = NULL, duration_ms = NULL,
		     error_message = NULL, updated_at = NOW()
		 RETURNING `+runStepColumns,
		runID, input.Step, input.Category, input.Status, params,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create run step: %w", err)
	}
	return step, nil
}

// GetRunStep returns the named state of runID, or nil when it was never recorded.
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return step, nil
}

// ListRunSteps returns the recorded states of runID in creation order, optionally filtered
// by status or category.
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID, status, category *string) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runStepColumns+` FROM run_steps
		 WHERE run_id = $1
		   AND ($2::text IS NULL OR status = $2)
		   AND ($3::text IS NULL OR category = $3)
		 ORDER BY created_at, step`,
		runID, status, category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		step, err := scanRunStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// UpdateRunStepStatus moves a state to status. Entering in_progress starts the clock if it
// has not started; a terminal status stamps completed_at and the duration. artifactID, when
// given, links the artifact the state produced.
func (db *DB) UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, stepName string, status string, errorMsg *string, artifactID *uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status        = $1,
		     started_at    = CASE WHEN $1 = 'in_progress' THEN COALESCE(started_at, NOW()) ELSE started_at END,
		     completed_at  = CASE WHEN $2 THEN NOW() END,
		     duration_ms   = CASE WHEN $2 AND started_at IS NOT NULL
		                          THEN (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::integer END,
		     error_message = $3,
		     artifact_id   = COALESCE($4, artifact_id),
		     updated_at    = NOW()
		 WHERE run_id = $5 AND step = $6`,
		status, IsTerminal(status), errorMsg, artifactID, runID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to update run step status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("step not found: %s", stepName)
	}
	return nil
}
