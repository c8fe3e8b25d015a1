// Package service processes PBX call events and recorded-call summaries.
package service

import (
	"context"
	"fmt"

	"medicore_backend/internal/telephony/repository"
	"medicore_backend/internal/telephony/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"
	"medicore_backend/platform/phone"

	"github.com/google/uuid"
)

// Repository is the call log persistence contract.
type Repository interface {
	Create(ctx context.Context, params repository.CreateCallLogParams) (repository.CallLog, error)
	SetSummary(ctx context.Context, id uuid.UUID, summary string) error
	GetByID(ctx context.Context, id uuid.UUID) (repository.CallLog, error)
	ListRecent(ctx context.Context, limit int) ([]repository.CallLog, error)
}

// LeadLookup resolves a phone number to a known lead.
type LeadLookup interface {
	FindIDByPhone(ctx context.Context, phone string) (uuid.UUID, bool, error)
}

// TranscriptionEnqueuer queues a recorded call for summarization.
type TranscriptionEnqueuer interface {
	EnqueueTranscription(ctx context.Context, callLogID, recordingURL string) error
}

// Summarizer produces a human-readable summary of a recorded call.
type Summarizer interface {
	Summarize(ctx context.Context, recordingURL string) (string, error)
}

type Service struct {
	repo       Repository
	leads      LeadLookup
	queue      TranscriptionEnqueuer
	summarizer Summarizer
	log        *logger.Logger
}

func New(repo Repository, leads LeadLookup, queue TranscriptionEnqueuer, summarizer Summarizer, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, queue: queue, summarizer: summarizer, log: log}
}

// RecordCallEvent logs a PBX call event. The consumer-side phone number is
// picked by direction, normalized, and matched against known leads; a
// recording queues a transcription task.
func (s *Service) RecordCallEvent(ctx context.Context, req transport.CallEventRequest) (transport.CallLogResponse, error) {
	rawPhone := req.From
	if req.Direction == transport.DirectionOutbound {
		rawPhone = req.To
	}
	phoneNumber := phone.NormalizeE164(rawPhone)

	var leadID *uuid.UUID
	id, found, err := s.leads.FindIDByPhone(ctx, phoneNumber)
	if err != nil {
		return transport.CallLogResponse{}, apperr.Wrap(apperr.KindInternal, "failed to match call to lead", err)
	}
	if found {
		leadID = &id
	}

	params := repository.CreateCallLogParams{
		LeadID:          leadID,
		PhoneNumber:     phoneNumber,
		Direction:       req.Direction,
		DurationSeconds: req.Duration,
	}
	if req.RecordingURL != "" {
		recordingURL := req.RecordingURL
		params.RecordingURL = &recordingURL
	}

	callLog, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.CallLogResponse{}, apperr.Wrap(apperr.KindInternal, "failed to persist call log", err)
	}

	if req.RecordingURL != "" {
		if err := s.queue.EnqueueTranscription(ctx, callLog.ID.String(), req.RecordingURL); err != nil {
			// The call log exists; the summary can be backfilled later.
			s.log.Error("failed to enqueue transcription", "call_log_id", callLog.ID, "error", err)
		}
	}

	return toCallLogResponse(callLog), nil
}

// ProcessRecording summarizes a recorded call and stores the result. Errors
// propagate so the queue redelivers; the summary write is an idempotent
// overwrite.
func (s *Service) ProcessRecording(ctx context.Context, callLogID uuid.UUID, recordingURL string) error {
	summary, err := s.summarizer.Summarize(ctx, recordingURL)
	if err != nil {
		return fmt.Errorf("failed to summarize recording: %w", err)
	}

	if err := s.repo.SetSummary(ctx, callLogID, summary); err != nil {
		return fmt.Errorf("failed to store call summary: %w", err)
	}

	return nil
}

// ListRecent returns recent call logs, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]transport.CallLogResponse, error) {
	logs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list call logs", err)
	}

	out := make([]transport.CallLogResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, toCallLogResponse(log))
	}
	return out, nil
}

func toCallLogResponse(log repository.CallLog) transport.CallLogResponse {
	resp := transport.CallLogResponse{
		ID:              log.ID.String(),
		PhoneNumber:     log.PhoneNumber,
		Direction:       log.Direction,
		DurationSeconds: log.DurationSeconds,
		RecordingURL:    log.RecordingURL,
		AISummary:       log.AISummary,
		CreatedAt:       log.CreatedAt,
	}
	if log.LeadID != nil {
		leadID := log.LeadID.String()
		resp.LeadID = &leadID
	}
	return resp
}
