package queue

import (
	"context"
	"errors"
	"testing"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/leads/service"
	"medicore_backend/internal/leads/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeLeadService struct {
	created     []transport.CreateLeadRequest
	announced   []service.AnnounceParams
	createErr   error
	announceErr error
}

func (f *fakeLeadService) Create(_ context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if f.createErr != nil {
		return transport.LeadResponse{}, f.createErr
	}
	f.created = append(f.created, req)
	return transport.LeadResponse{ID: uuid.New(), Name: req.Name, Email: req.Email}, nil
}

func (f *fakeLeadService) Announce(_ context.Context, params service.AnnounceParams) error {
	if f.announceErr != nil {
		return f.announceErr
	}
	f.announced = append(f.announced, params)
	return nil
}

type fakeImportProcessor struct {
	jobs []uuid.UUID
	err  error
}

func (f *fakeImportProcessor) ProcessJob(_ context.Context, jobID uuid.UUID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, jobID)
	return nil
}

type fakeCallProcessor struct {
	calls []uuid.UUID
}

func (f *fakeCallProcessor) ProcessRecording(_ context.Context, callLogID uuid.UUID, _ string) error {
	f.calls = append(f.calls, callLogID)
	return nil
}

type fakeAuditStore struct {
	entries []audit.Entry
}

func (f *fakeAuditStore) Insert(_ context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestWorker(leads *fakeLeadService, imports *fakeImportProcessor, calls *fakeCallProcessor, audits *fakeAuditStore) *Worker {
	return &Worker{
		leads:   leads,
		imports: imports,
		calls:   calls,
		audits:  audits,
		log:     logger.New("test"),
	}
}

func TestHandleLeadFollowUp(t *testing.T) {
	leads := &fakeLeadService{}
	w := newTestWorker(leads, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	leadID := uuid.New()
	task, err := NewLeadFollowUpTask(LeadFollowUpPayload{
		LeadID:  leadID.String(),
		Name:    "Maria Ionescu",
		Email:   "maria@clinica.ro",
		Source:  "Website",
		AIScore: 75,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleLeadFollowUp(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(leads.announced) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(leads.announced))
	}
	got := leads.announced[0]
	if got.LeadID != leadID || got.Email != "maria@clinica.ro" || got.AIScore != 75 {
		t.Fatalf("announcement params mismatch: %+v", got)
	}
}

func TestHandleLeadFollowUp_AnnounceErrorTriggersRetry(t *testing.T) {
	leads := &fakeLeadService{announceErr: errors.New("db down")}
	w := newTestWorker(leads, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task, _ := NewLeadFollowUpTask(LeadFollowUpPayload{LeadID: uuid.NewString(), Email: "x@y.ro"})
	err := w.handleLeadFollowUp(context.Background(), task)
	if err == nil {
		t.Fatal("expected error so the message is redelivered")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("transient failure must not be marked terminal")
	}
}

func TestHandleLeadFollowUp_MalformedPayloadIsTerminal(t *testing.T) {
	w := newTestWorker(&fakeLeadService{}, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task := asynq.NewTask(TaskLeadFollowUp, []byte("{not json"))
	err := w.handleLeadFollowUp(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}

func TestHandleLeadIntake(t *testing.T) {
	leads := &fakeLeadService{}
	w := newTestWorker(leads, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task, _ := NewLeadIntakeTask(LeadIntakePayload{Name: "Andrei Pop", Email: "andrei@firma.ro", Phone: "0721 000 000"})
	if err := w.handleLeadIntake(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(leads.created) != 1 {
		t.Fatalf("expected 1 created lead, got %d", len(leads.created))
	}
	if leads.created[0].Source != transport.LeadSourceChatbot {
		t.Fatalf("intake leads must carry the chatbot source, got %q", leads.created[0].Source)
	}
}

func TestHandleLeadIntake_ValidationFailureIsTerminal(t *testing.T) {
	leads := &fakeLeadService{createErr: apperr.Validation("name and email are required")}
	w := newTestWorker(leads, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task, _ := NewLeadIntakeTask(LeadIntakePayload{Email: "no-name@firma.ro"})
	err := w.handleLeadIntake(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid candidates are not retryable, got %v", err)
	}
}

func TestHandleLeadIntake_TransientFailureRetries(t *testing.T) {
	leads := &fakeLeadService{createErr: apperr.Internal("insert failed")}
	w := newTestWorker(leads, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task, _ := NewLeadIntakeTask(LeadIntakePayload{Name: "Ana", Email: "ana@firma.ro"})
	err := w.handleLeadIntake(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient failure must requeue, got %v", err)
	}
}

func TestHandleImportJob(t *testing.T) {
	imports := &fakeImportProcessor{}
	w := newTestWorker(&fakeLeadService{}, imports, &fakeCallProcessor{}, &fakeAuditStore{})

	jobID := uuid.New()
	task, _ := NewImportJobTask(ImportJobPayload{JobID: jobID.String(), ObjectKey: "imports/leads.csv"})
	if err := w.handleImportJob(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(imports.jobs) != 1 || imports.jobs[0] != jobID {
		t.Fatalf("expected job %s processed, got %v", jobID, imports.jobs)
	}
}

func TestHandleAuditEntry_CarriesProducerID(t *testing.T) {
	audits := &fakeAuditStore{}
	w := newTestWorker(&fakeLeadService{}, &fakeImportProcessor{}, &fakeCallProcessor{}, audits)

	id := uuid.New()
	task, _ := NewAuditEntryTask(AuditEntryPayload{
		ID:     id.String(),
		Action: "LEAD_CREATED",
		UserID: "user-7",
	})

	// Simulate at-least-once delivery of the same message.
	for i := 0; i < 2; i++ {
		if err := w.handleAuditEntry(context.Background(), task); err != nil {
			t.Fatalf("handle #%d: %v", i+1, err)
		}
	}

	if len(audits.entries) != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", len(audits.entries))
	}
	for _, entry := range audits.entries {
		if entry.ID != id {
			t.Fatalf("insert must reuse producer-generated id %s, got %s", id, entry.ID)
		}
	}
}

func TestHandleMediaProcess(t *testing.T) {
	audits := &fakeAuditStore{}
	w := newTestWorker(&fakeLeadService{}, &fakeImportProcessor{}, &fakeCallProcessor{}, audits)

	task, _ := NewMediaTask(MediaPayload{ObjectKey: "imports/abc-scan.jpg"})

	// Simulate at-least-once delivery of the same message.
	for i := 0; i < 2; i++ {
		if err := w.handleMediaProcess(context.Background(), task); err != nil {
			t.Fatalf("handle #%d: %v", i+1, err)
		}
	}

	if len(audits.entries) != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", len(audits.entries))
	}
	if audits.entries[0].Action != "MEDIA_PROCESSING_QUEUED" {
		t.Fatalf("unexpected action %q", audits.entries[0].Action)
	}
	if audits.entries[0].ID != audits.entries[1].ID {
		t.Fatalf("redelivery must derive the same entry id, got %s and %s",
			audits.entries[0].ID, audits.entries[1].ID)
	}
	if audits.entries[0].Details["objectKey"] != "imports/abc-scan.jpg" {
		t.Fatalf("entry must reference the object, got %v", audits.entries[0].Details)
	}
}

func TestHandleMediaProcess_MalformedPayloadIsTerminal(t *testing.T) {
	w := newTestWorker(&fakeLeadService{}, &fakeImportProcessor{}, &fakeCallProcessor{}, &fakeAuditStore{})

	task := asynq.NewTask(TaskMediaProcess, []byte("{not json"))
	if err := w.handleMediaProcess(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}

func TestHandleTranscription(t *testing.T) {
	calls := &fakeCallProcessor{}
	w := newTestWorker(&fakeLeadService{}, &fakeImportProcessor{}, calls, &fakeAuditStore{})

	callLogID := uuid.New()
	task, _ := NewTranscriptionTask(TranscriptionPayload{
		CallLogID:    callLogID.String(),
		RecordingURL: "https://pbx.example.com/rec/42.mp3",
	})
	if err := w.handleTranscription(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(calls.calls) != 1 || calls.calls[0] != callLogID {
		t.Fatalf("expected call %s processed, got %v", callLogID, calls.calls)
	}
}
