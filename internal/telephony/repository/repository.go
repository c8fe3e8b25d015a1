// Package repository persists PBX call logs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("call log not found")

// CallLog is a call_logs row.
type CallLog struct {
	ID              uuid.UUID
	LeadID          *uuid.UUID
	PhoneNumber     string
	Direction       string
	DurationSeconds int
	RecordingURL    *string
	AISummary       *string
	CreatedAt       time.Time
}

// CreateCallLogParams carries the fields of a new call log.
type CreateCallLogParams struct {
	LeadID          *uuid.UUID
	PhoneNumber     string
	Direction       string
	DurationSeconds int
	RecordingURL    *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a call log and returns it.
func (r *Repository) Create(ctx context.Context, params CreateCallLogParams) (CallLog, error) {
	log := CallLog{
		ID:              uuid.New(),
		LeadID:          params.LeadID,
		PhoneNumber:     params.PhoneNumber,
		Direction:       params.Direction,
		DurationSeconds: params.DurationSeconds,
		RecordingURL:    params.RecordingURL,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (id, lead_id, phone_number, direction, duration_seconds, recording_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at
	`, log.ID, log.LeadID, log.PhoneNumber, log.Direction, log.DurationSeconds, log.RecordingURL).Scan(&log.CreatedAt)
	if err != nil {
		return CallLog{}, err
	}

	return log, nil
}

// SetSummary stores the AI summary for a call. Overwriting an existing
// summary is fine; a redelivered transcription task converges to the same
// value.
func (r *Repository) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_logs SET ai_summary = $2 WHERE id = $1
	`, id, summary)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single call log.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (CallLog, error) {
	var log CallLog
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, phone_number, direction, duration_seconds, recording_url, ai_summary, created_at
		FROM call_logs
		WHERE id = $1
	`, id).Scan(&log.ID, &log.LeadID, &log.PhoneNumber, &log.Direction, &log.DurationSeconds, &log.RecordingURL, &log.AISummary, &log.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, err
	}
	return log, nil
}

// ListRecent returns call logs, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]CallLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, phone_number, direction, duration_seconds, recording_url, ai_summary, created_at
		FROM call_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]CallLog, 0)
	for rows.Next() {
		var log CallLog
		if err := rows.Scan(&log.ID, &log.LeadID, &log.PhoneNumber, &log.Direction, &log.DurationSeconds, &log.RecordingURL, &log.AISummary, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
