// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs persists the history of document conversions in SQLite.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cne-ai/pkg/types"
)

// ErrNotFound is returned by Get for unknown job IDs.
var ErrNotFound = errors.New("job not found")

const defaultMaxResults = 20

// timeLayout has a fixed width so that created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// TableSummary describes one table a job extracted.
type TableSummary struct {
	Index int `json:"index" yaml:"index"`
	Rows  int `json:"rows" yaml:"rows"`
	Cols  int `json:"cols" yaml:"cols"`
}

// Store manages the job history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the job database at cfg.Path, creating the
// parent directory and the schema if they do not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("job store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			size INTEGER NOT NULL,
			tables INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			archive_key TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_sha256 ON jobs(sha256)`,
		`CREATE TABLE IF NOT EXISTS job_tables (
			job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			table_index INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			col_count INTEGER NOT NULL,
			PRIMARY KEY (job_id, table_index)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts job and a summary of its tables in one transaction.
// Recording an existing ID replaces the earlier record.
func (s *Store) Record(ctx context.Context, job types.Job, tables []types.Table) error {
	if job.ID == "" {
		return errors.New("job ID is empty")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_tables WHERE job_id = ?`, job.ID); err != nil {
		return fmt.Errorf("clearing job tables: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (id, filename, sha256, size, tables, status, error, archive_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Filename, job.SHA256, job.Size, job.Tables, string(job.Status),
		job.Error, job.ArchiveKey, job.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO job_tables (job_id, table_index, row_count, col_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing table insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tables {
		if _, err := stmt.ExecContext(ctx, job.ID, t.Index, len(t.Rows), t.Width()); err != nil {
			return fmt.Errorf("inserting table %d: %w", t.Index, err)
		}
	}

	return tx.Commit()
}

const jobColumns = `id, filename, sha256, size, tables, status, error, archive_key, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (types.Job, error) {
	var (
		job        types.Job
		status     string
		jobErr     sql.NullString
		archiveKey sql.NullString
		createdAt  string
	)
	if err := row.Scan(&job.ID, &job.Filename, &job.SHA256, &job.Size, &job.Tables,
		&status, &jobErr, &archiveKey, &createdAt); err != nil {
		return types.Job{}, err
	}
	job.Status = types.JobStatus(status)
	job.Error = jobErr.String
	job.ArchiveKey = archiveKey.String
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return types.Job{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	job.CreatedAt = t
	return job, nil
}

// Get returns the job with the given ID.
func (s *Store) Get(ctx context.Context, id string) (types.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Job{}, fmt.Errorf("reading job %s: %w", id, err)
	}
	return job, nil
}

// Tables returns the table summaries recorded for a job, in table order.
func (s *Store) Tables(ctx context.Context, id string) ([]TableSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_index, row_count, col_count FROM job_tables WHERE job_id = ? ORDER BY table_index`, id)
	if err != nil {
		return nil, fmt.Errorf("querying job tables: %w", err)
	}
	defer rows.Close()

	var out []TableSummary
	for rows.Next() {
		var ts TableSummary
		if err := rows.Scan(&ts.Index, &ts.Rows, &ts.Cols); err != nil {
			return nil, fmt.Errorf("scanning job table: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// List returns the most recent jobs, newest first. A limit of zero or less
// uses the store's default.
func (s *Store) List(ctx context.Context, limit int) ([]types.Job, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
