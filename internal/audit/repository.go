package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists audit entries.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends an entry. The insert is keyed by the client-generated id,
// so a redelivered queue message converges to a single row.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, action, user_id, target_id, details, occurred_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Action, entry.UserID, entry.TargetID, details, entry.Timestamp)
	return err
}

// StoredEntry is an audit row as read back from the database.
type StoredEntry struct {
	ID        uuid.UUID
	Action    string
	UserID    *string
	TargetID  *string
	Details   []byte
	Timestamp time.Time
}

// ListRecent returns the most recent entries, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]StoredEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, action, user_id, target_id, details, occurred_at
		FROM audit_logs
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]StoredEntry, 0)
	for rows.Next() {
		var entry StoredEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.UserID, &entry.TargetID, &entry.Details, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
