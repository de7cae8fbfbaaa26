// Package db provides PostgreSQL access for pipeline runs, their step history and artifacts.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Pool exposes the underlying pool for stores that share the connection.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

const runColumns = `id, run_key, COALESCE(candidate_name, ''), COALESCE(candidate_email, ''),
	COALESCE(company, ''), COALESCE(role_title, ''), resume_path, COALESCE(jd_path, ''), rounds,
	status, COALESCE(error_type, ''), COALESCE(error_message, ''), created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.RunKey, &run.CandidateName, &run.CandidateEmail,
		&run.Company, &run.RoleTitle, &run.ResumePath, &run.JDPath, &run.Rounds,
		&run.Status, &run.ErrorType, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRun creates a new pipeline run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, input RunInput) (uuid.UUID, error) {
	rounds := input.Rounds
	if rounds == nil {
		rounds = []string{}
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (run_key, resume_path, jd_path, rounds, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 RETURNING id`,
		input.RunKey, input.ResumePath, input.JDPath, rounds, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// UpdateRun records candidate and job details as they become known.
func (db *DB) UpdateRun(ctx context.Context, runID uuid.UUID, update RunUpdate) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET candidate_name = COALESCE(NULLIF($1, ''), candidate_name),
		     candidate_email = COALESCE(NULLIF($2, ''), candidate_email),
		     company = COALESCE(NULLIF($3, ''), company),
		     role_title = COALESCE(NULLIF($4, ''), role_title)
		 WHERE id = $5`,
		update.CandidateName, update.CandidateEmail, update.Company, update.RoleTitle, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// CompleteRun marks a pipeline run as finished with status; errorType and errorMessage
// may be empty.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, errorType, errorMessage string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET status = $1, error_type = NULLIF($2, ''), error_message = NULLIF($3, ''), completed_at = NOW()
		 WHERE id = $4`,
		status, errorType, errorMessage, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a pipeline run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunByKey retrieves a pipeline run by its run id as printed in the summary.
func (db *DB) GetRunByKey(ctx context.Context, runKey string) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE run_key = $1`, runKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs with optional filters
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Company != "" {
		query += fmt.Sprintf(" AND company ILIKE $%d", argNum)
		args = append(args, "%"+filters.Company+"%")
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a pipeline run and all its artifacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM pipeline_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
