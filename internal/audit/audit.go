// Package audit records one append-only row per pipeline execution.
package audit

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/interview-prep/internal/types"
)

// FileName is the JSONL audit log written under the output directory when no database is configured.
const FileName = "audit.jsonl"

// Store appends run records. Implementations never update or delete rows.
type Store interface {
	Append(ctx context.Context, rec types.RunRecord) error
}

// SQLStore writes run records to the candidates table.
type SQLStore struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewSQLStore creates a SQL-backed audit store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, Now: time.Now}
}

// Append inserts rec. A zero CreatedAt is stamped with the current time.
func (s *SQLStore) Append(ctx context.Context, rec types.RunRecord) error {
	if s.DB == nil {
		return fmt.Errorf("audit store has no database")
	}
	rec = stamp(rec, s.Now)

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO candidates (candidate_name, candidate_email, job_company, job_role,
		                         resume_path, jd_path, pdf_output_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		nullIfEmpty(rec.CandidateName), nullIfEmpty(rec.CandidateEmail),
		nullIfEmpty(rec.JobCompany), nullIfEmpty(rec.JobRole),
		rec.ResumePath, rec.JDPath, nullIfEmpty(rec.PDFOutputPath), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// FileStore appends run records as JSON lines. Safe for concurrent runs in one process.
type FileStore struct {
	Path string
	Now  func() time.Time

	mu sync.Mutex
}

// NewFileStore creates a store writing to outputDir/audit.jsonl.
func NewFileStore(outputDir string) *FileStore {
	return &FileStore{Path: filepath.Join(outputDir, FileName), Now: time.Now}
}

// Append writes rec as one line.
func (s *FileStore) Append(ctx context.Context, rec types.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec = stamp(rec, s.Now)

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// ReadFile loads every record of a JSONL audit log.
func ReadFile(path string) ([]types.RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []types.RunRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec types.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse audit line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func stamp(rec types.RunRecord, now func() time.Time) types.RunRecord {
	if rec.CreatedAt.IsZero() {
		if now == nil {
			now = time.Now
		}
		rec.CreatedAt = now().UTC()
	}
	return rec
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*FileStore)(nil)
)
