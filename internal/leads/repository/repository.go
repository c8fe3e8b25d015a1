package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	Status          string
	AIScore         int
	AIExplanation   *string
	AINextAction    *string
	Source          string
	AssignedTo      string
	LastContactedAt time.Time
	CreatedAt       time.Time
	UTMSource       *string
	UTMMedium       *string
	UTMCampaign     *string
	UTMTerm         *string
	UTMContent      *string
}

type CreateLeadParams struct {
	Name          string
	Email         string
	Phone         string
	AIScore       int
	AIExplanation string
	AINextAction  string
	Source        string
	UTMSource     *string
	UTMMedium     *string
	UTMCampaign   *string
	UTMTerm       *string
	UTMContent    *string
}

const leadColumns = `id, name, email, phone, status, ai_score, ai_explanation, ai_next_action,
	source, assigned_to, last_contacted_at, created_at,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Status,
		&lead.AIScore, &lead.AIExplanation, &lead.AINextAction,
		&lead.Source, &lead.AssignedTo, &lead.LastContactedAt, &lead.CreatedAt,
		&lead.UTMSource, &lead.UTMMedium, &lead.UTMCampaign, &lead.UTMTerm, &lead.UTMContent,
	)
	return lead, err
}

// Create persists a new lead. There is deliberately no unique constraint on
// email: deduplication is a pipeline-level concern handled at announce time,
// and the synchronous entry path accepts creation unconditionally.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			id, name, email, phone, status, ai_score, ai_explanation, ai_next_action,
			source, assigned_to, last_contacted_at, created_at,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content
		) VALUES (
			$1, $2, $3, $4, 'New', $5, $6, $7,
			$8, 'Unassigned', now(), now(),
			$9, $10, $11, $12, $13
		)
		RETURNING `+leadColumns,
		uuid.New(), params.Name, params.Email, params.Phone,
		params.AIScore, params.AIExplanation, params.AINextAction, params.Source,
		params.UTMSource, params.UTMMedium, params.UTMCampaign, params.UTMTerm, params.UTMContent,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// UpdateStatus changes a lead's pipeline status and bumps last_contacted_at.
// This is the record-lock-protected edit path; the lease itself is advisory
// and enforced by the UI, so no lock check happens here.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, last_contacted_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, id, status)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindDuplicateByEmail reports whether another lead with the same email
// already exists, excluding the given id. Matching is exact-string; case
// normalization is intentionally not applied.
func (r *Repository) FindDuplicateByEmail(ctx context.Context, email string, excludeID uuid.UUID) (uuid.UUID, bool, error) {
	var existingID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM leads WHERE email = $1 AND id != $2 LIMIT 1
	`, email, excludeID).Scan(&existingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return existingID, true, nil
}

// FindIDByPhone looks up a lead by its E.164 phone number. Used by the
// telephony webhook to attach call logs.
func (r *Repository) FindIDByPhone(ctx context.Context, phone string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM leads WHERE phone = $1 LIMIT 1
	`, phone).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}
