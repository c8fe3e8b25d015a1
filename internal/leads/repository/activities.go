package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity types recorded by the intake pipeline.
const (
	ActivityCallCenterNotified   = "CALL_CENTER_NOTIFIED"
	ActivityDuplicateLeadIgnored = "DUPLICATE_LEAD_IGNORED"
)

type Activity struct {
	ID          uuid.UUID
	Type        string
	Description string
	Details     []byte
	CreatedAt   time.Time
}

type ActivityParams struct {
	Type        string
	Description string
	Details     map[string]any
}

// InsertActivity appends a pipeline activity row. Activities are the
// staff-visible trail of what the intake pipeline decided for each lead.
func (r *Repository) InsertActivity(ctx context.Context, params ActivityParams) error {
	var details []byte
	if params.Details != nil {
		var err error
		details, err = json.Marshal(params.Details)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (id, type, description, details, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, uuid.New(), params.Type, params.Description, details)
	return err
}

// ListActivities returns the most recent pipeline activities, newest first.
func (r *Repository) ListActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, type, description, details, created_at
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var activity Activity
		if err := rows.Scan(&activity.ID, &activity.Type, &activity.Description, &activity.Details, &activity.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}
