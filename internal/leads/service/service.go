// Package service implements the single authoritative path that turns
// candidate lead data into a persisted lead, plus the announce step that
// deduplicates and notifies the call center on the asynchronous path.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/leads/repository"
	"medicore_backend/internal/leads/scoring"
	"medicore_backend/internal/leads/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"
	"medicore_backend/platform/phone"

	"github.com/google/uuid"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, limit int) ([]repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error)
	FindDuplicateByEmail(ctx context.Context, email string, excludeID uuid.UUID) (uuid.UUID, bool, error)
	InsertActivity(ctx context.Context, params repository.ActivityParams) error
	ListActivities(ctx context.Context, limit int) ([]repository.Activity, error)
}

// Scorer enriches a candidate with a quality score. It never fails.
type Scorer interface {
	Score(ctx context.Context, candidate scoring.Candidate) scoring.Result
}

// FollowUpEnqueuer puts a freshly created lead onto the follow-up topic.
type FollowUpEnqueuer interface {
	EnqueueLeadFollowUp(ctx context.Context, lead repository.Lead) error
}

// Notifier tells the call center about an actionable lead. Failures are
// logged, never propagated; notification is best-effort by design.
type Notifier interface {
	NotifyCallCenter(ctx context.Context, lead repository.Lead) error
}

type Service struct {
	repo     Repository
	scorer   Scorer
	queue    FollowUpEnqueuer
	notifier Notifier
	audit    *audit.Emitter
	log      *logger.Logger
}

func New(repo Repository, scorer Scorer, queue FollowUpEnqueuer, notifier Notifier, auditEmitter *audit.Emitter, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		scorer:   scorer,
		queue:    queue,
		notifier: notifier,
		audit:    auditEmitter,
		log:      log,
	}
}

// Create validates, enriches, persists, and announces a candidate lead.
// The synchronous path accepts creation unconditionally: no duplicate check
// happens before the insert. Deduplication is applied at announce time on
// the queue path, which is where cross-channel races are caught.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if req.Name == "" || req.Email == "" || req.Source == "" {
		return transport.LeadResponse{}, apperr.Validation("missing required fields: name, email, source")
	}

	req.Phone = phone.NormalizeE164(req.Phone)

	result := s.scorer.Score(ctx, scoring.Candidate{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Source: string(req.Source),
	})

	params := repository.CreateLeadParams{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		AIScore:       result.Score,
		AIExplanation: result.Explanation,
		AINextAction:  result.NextAction,
		Source:        string(req.Source),
	}
	if req.UTM != nil {
		params.UTMSource = optional(req.UTM.Source)
		params.UTMMedium = optional(req.UTM.Medium)
		params.UTMCampaign = optional(req.UTM.Campaign)
		params.UTMTerm = optional(req.UTM.Term)
		params.UTMContent = optional(req.UTM.Content)
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to persist lead", err)
	}

	if err := s.queue.EnqueueLeadFollowUp(ctx, lead); err != nil {
		// The lead row exists; the caller (or queue redelivery) decides
		// whether to resubmit. Announce-time dedup keeps a resubmit from
		// double-notifying.
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to enqueue lead follow-up", err)
	}

	s.audit.Log(ctx, "LEAD_CREATED", audit.Options{
		TargetID: lead.ID.String(),
		Details:  map[string]any{"source": lead.Source, "aiScore": lead.AIScore},
	})

	return toLeadResponse(lead), nil
}

// AnnounceParams identifies the lead a follow-up message refers to.
type AnnounceParams struct {
	LeadID  uuid.UUID
	Name    string
	Email   string
	AIScore int
}

// Announce performs the pipeline-level duplicate check and, when the lead is
// novel, records the call-center notification activity. A duplicate is
// recognized, logged, and silently suppressed; the already-created row is
// left in place. Returned errors signal the queue to redeliver.
func (s *Service) Announce(ctx context.Context, params AnnounceParams) error {
	existingID, isDuplicate, err := s.repo.FindDuplicateByEmail(ctx, params.Email, params.LeadID)
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}

	if isDuplicate {
		s.log.Info("duplicate lead detected and ignored", "email", params.Email, "lead_id", params.LeadID)
		return s.repo.InsertActivity(ctx, repository.ActivityParams{
			Type:        repository.ActivityDuplicateLeadIgnored,
			Description: fmt.Sprintf("Duplicate lead ignored for email: %s", params.Email),
			Details: map[string]any{
				"newLeadId":      params.LeadID.String(),
				"existingLeadId": existingID.String(),
			},
		})
	}

	err = s.repo.InsertActivity(ctx, repository.ActivityParams{
		Type:        repository.ActivityCallCenterNotified,
		Description: fmt.Sprintf("New lead '%s' sent to call center for immediate follow-up.", params.Name),
		Details: map[string]any{
			"leadId":  params.LeadID.String(),
			"aiScore": params.AIScore,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to record call center notification: %w", err)
	}

	if s.notifier != nil {
		lead, err := s.repo.GetByID(ctx, params.LeadID)
		if err == nil {
			if err := s.notifier.NotifyCallCenter(ctx, lead); err != nil {
				s.log.Error("call center notification failed", "lead_id", params.LeadID, "error", err)
			}
		}
	}

	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, limit int) ([]transport.LeadResponse, error) {
	leads, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toLeadResponse(lead))
	}
	return responses, nil
}

// UpdateStatus is the record-lock-protected edit path. The lease is advisory:
// the UI acquires it before opening the editor, so no lock check happens here.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateLeadStatusRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.UpdateStatus(ctx, id, string(req.Status))
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
	}

	s.audit.Log(ctx, "LEAD_STATUS_CHANGED", audit.Options{
		UserID:   req.UserID,
		TargetID: lead.ID.String(),
		Details:  map[string]any{"status": lead.Status},
	})

	return toLeadResponse(lead), nil
}

func (s *Service) ListActivities(ctx context.Context, limit int) ([]transport.ActivityResponse, error) {
	activities, err := s.repo.ListActivities(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		resp := transport.ActivityResponse{
			ID:          activity.ID,
			Type:        activity.Type,
			Description: activity.Description,
			CreatedAt:   activity.CreatedAt,
		}
		if len(activity.Details) > 0 {
			var details map[string]any
			if err := json.Unmarshal(activity.Details, &details); err == nil {
				resp.Details = details
			}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Email:           lead.Email,
		Phone:           lead.Phone,
		Status:          lead.Status,
		AIScore:         lead.AIScore,
		Source:          lead.Source,
		AssignedTo:      lead.AssignedTo,
		LastContactedAt: lead.LastContactedAt,
		CreatedAt:       lead.CreatedAt,
	}
	if lead.AIExplanation != nil {
		resp.AIExplanation = *lead.AIExplanation
	}
	if lead.AINextAction != nil {
		resp.AINextAction = *lead.AINextAction
	}

	utm := transport.UTMParams{
		Source:   deref(lead.UTMSource),
		Medium:   deref(lead.UTMMedium),
		Campaign: deref(lead.UTMCampaign),
		Term:     deref(lead.UTMTerm),
		Content:  deref(lead.UTMContent),
	}
	if utm != (transport.UTMParams{}) {
		resp.UTM = &utm
	}

	return resp
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
