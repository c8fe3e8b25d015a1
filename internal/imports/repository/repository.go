// Package repository persists bulk import jobs.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Import job statuses.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

var ErrNotFound = errors.New("import job not found")

// Job is an import_jobs row.
type Job struct {
	ID            uuid.UUID
	FileName      string
	ObjectKey     string
	CreatedBy     string
	Status        string
	TotalRows     int
	ProcessedRows int
	FailedRows    int
	ErrorLog      []string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a Pending job and returns it.
func (r *Repository) Create(ctx context.Context, fileName, objectKey, createdBy string) (Job, error) {
	job := Job{
		ID:        uuid.New(),
		FileName:  fileName,
		ObjectKey: objectKey,
		CreatedBy: createdBy,
		Status:    StatusPending,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO import_jobs (id, file_name, object_key, created_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING created_at
	`, job.ID, job.FileName, job.ObjectKey, job.CreatedBy, job.Status).Scan(&job.CreatedAt)
	if err != nil {
		return Job{}, err
	}

	return job, nil
}

// MarkProcessing transitions a job to Processing. Safe to call again on a
// redelivered message.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, total_rows = $3
		WHERE id = $1
	`, id, StatusProcessing, totalRows)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete records the terminal Completed state with per-row outcome counts.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, processed, failed int, errorLog []string) error {
	return r.finish(ctx, id, StatusCompleted, processed, failed, errorLog)
}

// Fail records the terminal Failed state.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID, errorLog []string) error {
	return r.finish(ctx, id, StatusFailed, 0, 0, errorLog)
}

func (r *Repository) finish(ctx context.Context, id uuid.UUID, status string, processed, failed int, errorLog []string) error {
	var log []byte
	if len(errorLog) > 0 {
		var err error
		log, err = json.Marshal(errorLog)
		if err != nil {
			return err
		}
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, processed_rows = $3, failed_rows = $4, error_log = $5, completed_at = now()
		WHERE id = $1
	`, id, status, processed, failed, log)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single job.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, file_name, object_key, created_by, status, total_rows,
		       processed_rows, failed_rows, error_log, created_at, completed_at
		FROM import_jobs
		WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

// ListHistory returns jobs, newest first.
func (r *Repository) ListHistory(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, file_name, object_key, created_by, status, total_rows,
		       processed_rows, failed_rows, error_log, created_at, completed_at
		FROM import_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (Job, error) {
	var job Job
	var errorLog []byte
	if err := row.Scan(
		&job.ID, &job.FileName, &job.ObjectKey, &job.CreatedBy, &job.Status,
		&job.TotalRows, &job.ProcessedRows, &job.FailedRows, &errorLog,
		&job.CreatedAt, &job.CompletedAt,
	); err != nil {
		return Job{}, err
	}
	if len(errorLog) > 0 {
		if err := json.Unmarshal(errorLog, &job.ErrorLog); err != nil {
			return Job{}, err
		}
	}
	return job, nil
}
