package queue

import (
	"context"
	"fmt"
	"time"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/config"
	"medicore_backend/internal/leads/service"
	"medicore_backend/internal/leads/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadService is the slice of the leads service the worker consumes.
type LeadService interface {
	Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error)
	Announce(ctx context.Context, params service.AnnounceParams) error
}

// ImportProcessor runs a bulk import job to completion.
type ImportProcessor interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID, objectKey string) error
}

// CallProcessor summarizes a recorded call.
type CallProcessor interface {
	ProcessRecording(ctx context.Context, callLogID uuid.UUID, recordingURL string) error
}

// AuditStore appends audit entries.
type AuditStore interface {
	Insert(ctx context.Context, entry audit.Entry) error
}

// Worker is the consumer side of the event queue. Handlers signal redelivery
// by returning an error; a nil return acknowledges the message.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	leads   LeadService
	imports ImportProcessor
	calls   CallProcessor
	audits  AuditStore
	log     *logger.Logger
}

func NewWorker(cfg *config.Config, leads LeadService, imports ImportProcessor, calls CallProcessor, audits AuditStore, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.AsynqConcurrency
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		leads:   leads,
		imports: imports,
		calls:   calls,
		audits:  audits,
		log:     log,
	}

	mux.HandleFunc(TaskLeadFollowUp, w.handleLeadFollowUp)
	mux.HandleFunc(TaskLeadIntake, w.handleLeadIntake)
	mux.HandleFunc(TaskImportProcess, w.handleImportJob)
	mux.HandleFunc(TaskAuditAppend, w.handleAuditEntry)
	mux.HandleFunc(TaskMediaProcess, w.handleMediaProcess)
	mux.HandleFunc(TaskTranscribe, w.handleTranscription)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("queue worker stopped", "error", err)
	}
}

func (w *Worker) handleLeadFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadFollowUpPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.leads.Announce(ctx, service.AnnounceParams{
		LeadID:  leadID,
		Name:    payload.Name,
		Email:   payload.Email,
		AIScore: payload.AIScore,
	})
	w.log.QueueEvent(TaskLeadFollowUp, err == nil, err)
	return err
}

// handleLeadIntake creates a lead from a chatbot-captured candidate. A
// validation failure is terminal: redelivering malformed input cannot fix it.
func (w *Worker) handleLeadIntake(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadIntakePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	_, err = w.leads.Create(ctx, transport.CreateLeadRequest{
		Name:   payload.Name,
		Email:  payload.Email,
		Phone:  payload.Phone,
		Source: transport.LeadSourceChatbot,
	})
	if err != nil {
		if apperr.GetKind(err) == apperr.KindValidation {
			w.log.Error("discarding invalid intake candidate", "email", payload.Email, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		w.log.QueueEvent(TaskLeadIntake, false, err)
		return err
	}

	w.log.QueueEvent(TaskLeadIntake, true, nil)
	return nil
}

func (w *Worker) handleImportJob(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseImportJobPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.imports.ProcessJob(ctx, jobID, payload.ObjectKey)
	w.log.QueueEvent(TaskImportProcess, err == nil, err)
	return err
}

func (w *Worker) handleAuditEntry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAuditEntryPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return w.audits.Insert(ctx, audit.Entry{
		ID:        id,
		Action:    payload.Action,
		UserID:    payload.UserID,
		TargetID:  payload.TargetID,
		Details:   payload.Details,
		Timestamp: payload.Timestamp,
	})
}

// handleMediaProcess records that an uploaded object was seen. Actual media
// pipelines hang off this topic later.
func (w *Worker) handleMediaProcess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMediaPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	w.log.Info("media object queued for processing", "object_key", payload.ObjectKey)

	// The id is derived from the object key so a redelivered message hits
	// the insert's conflict clause instead of appending a second row.
	return w.audits.Insert(ctx, audit.Entry{
		ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(payload.ObjectKey)),
		Action:    "MEDIA_PROCESSING_QUEUED",
		Details:   map[string]any{"objectKey": payload.ObjectKey},
		Timestamp: time.Now().UTC(),
	})
}

func (w *Worker) handleTranscription(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTranscriptionPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	callLogID, err := uuid.Parse(payload.CallLogID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.calls.ProcessRecording(ctx, callLogID, payload.RecordingURL)
	w.log.QueueEvent(TaskTranscribe, err == nil, err)
	return err
}
