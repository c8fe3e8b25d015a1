package service

import (
	"context"
	"errors"
	"testing"

	"medicore_backend/internal/telephony/repository"
	"medicore_backend/internal/telephony/transport"
	"medicore_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	logs      map[uuid.UUID]*repository.CallLog
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{logs: make(map[uuid.UUID]*repository.CallLog)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateCallLogParams) (repository.CallLog, error) {
	if f.createErr != nil {
		return repository.CallLog{}, f.createErr
	}
	log := repository.CallLog{
		ID:              uuid.New(),
		LeadID:          params.LeadID,
		PhoneNumber:     params.PhoneNumber,
		Direction:       params.Direction,
		DurationSeconds: params.DurationSeconds,
		RecordingURL:    params.RecordingURL,
	}
	f.logs[log.ID] = &log
	return log, nil
}

func (f *fakeRepo) SetSummary(_ context.Context, id uuid.UUID, summary string) error {
	log, ok := f.logs[id]
	if !ok {
		return repository.ErrNotFound
	}
	log.AISummary = &summary
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.CallLog, error) {
	log, ok := f.logs[id]
	if !ok {
		return repository.CallLog{}, repository.ErrNotFound
	}
	return *log, nil
}

func (f *fakeRepo) ListRecent(_ context.Context, _ int) ([]repository.CallLog, error) {
	out := make([]repository.CallLog, 0, len(f.logs))
	for _, log := range f.logs {
		out = append(out, *log)
	}
	return out, nil
}

type fakeLeadLookup struct {
	byPhone map[string]uuid.UUID
}

func (f *fakeLeadLookup) FindIDByPhone(_ context.Context, phone string) (uuid.UUID, bool, error) {
	id, ok := f.byPhone[phone]
	return id, ok, nil
}

type fakeQueue struct {
	enqueued []string
	err      error
}

func (f *fakeQueue) EnqueueTranscription(_ context.Context, callLogID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, callLogID)
	return nil
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return f.summary, f.err
}

func newTestService(repo *fakeRepo, leads *fakeLeadLookup, queue *fakeQueue, sum *fakeSummarizer) *Service {
	if leads == nil {
		leads = &fakeLeadLookup{byPhone: map[string]uuid.UUID{}}
	}
	return New(repo, leads, queue, sum, logger.New("test"))
}

func TestRecordCallEvent_InboundMatchesLeadByCallerPhone(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeRepo()
	leads := &fakeLeadLookup{byPhone: map[string]uuid.UUID{"+40721000001": leadID}}
	svc := newTestService(repo, leads, &fakeQueue{}, &fakeSummarizer{})

	resp, err := svc.RecordCallEvent(context.Background(), transport.CallEventRequest{
		From:      "0721 000 001",
		To:        "+40212223344",
		Direction: transport.DirectionInbound,
		Duration:  180,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if resp.PhoneNumber != "+40721000001" {
		t.Fatalf("inbound calls must log the normalized caller number, got %q", resp.PhoneNumber)
	}
	if resp.LeadID == nil || *resp.LeadID != leadID.String() {
		t.Fatalf("expected call matched to lead %s, got %v", leadID, resp.LeadID)
	}
}

func TestRecordCallEvent_OutboundUsesCalledParty(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, &fakeQueue{}, &fakeSummarizer{})

	resp, err := svc.RecordCallEvent(context.Background(), transport.CallEventRequest{
		From:      "+40212223344",
		To:        "0721000002",
		Direction: transport.DirectionOutbound,
		Duration:  60,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if resp.PhoneNumber != "+40721000002" {
		t.Fatalf("outbound calls must log the called party, got %q", resp.PhoneNumber)
	}
	if resp.LeadID != nil {
		t.Fatalf("unknown numbers must not be matched, got %v", *resp.LeadID)
	}
}

func TestRecordCallEvent_RecordingQueuesTranscription(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	svc := newTestService(repo, nil, queue, &fakeSummarizer{})

	resp, err := svc.RecordCallEvent(context.Background(), transport.CallEventRequest{
		From:         "0721000003",
		To:           "+40212223344",
		Direction:    transport.DirectionInbound,
		Duration:     240,
		RecordingURL: "https://pbx.example.com/rec/7.mp3",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0] != resp.ID {
		t.Fatalf("expected transcription queued for %s, got %v", resp.ID, queue.enqueued)
	}
}

func TestRecordCallEvent_NoRecordingNoTranscription(t *testing.T) {
	queue := &fakeQueue{}
	svc := newTestService(newFakeRepo(), nil, queue, &fakeSummarizer{})

	_, err := svc.RecordCallEvent(context.Background(), transport.CallEventRequest{
		From:      "0721000004",
		To:        "+40212223344",
		Direction: transport.DirectionInbound,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("expected no transcription without a recording, got %v", queue.enqueued)
	}
}

func TestRecordCallEvent_EnqueueFailureDoesNotFailWebhook(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := newTestService(repo, nil, queue, &fakeSummarizer{})

	resp, err := svc.RecordCallEvent(context.Background(), transport.CallEventRequest{
		From:         "0721000005",
		To:           "+40212223344",
		Direction:    transport.DirectionInbound,
		RecordingURL: "https://pbx.example.com/rec/8.mp3",
	})
	if err != nil {
		t.Fatalf("webhook must not fail on enqueue errors, got %v", err)
	}
	if _, ok := repo.logs[uuid.MustParse(resp.ID)]; !ok {
		t.Fatal("call log must still be persisted")
	}
}

func TestProcessRecording(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, &fakeQueue{}, &fakeSummarizer{summary: "Caller asked about implant pricing."})

	log, err := repo.Create(context.Background(), repository.CreateCallLogParams{
		PhoneNumber: "+40721000006",
		Direction:   transport.DirectionInbound,
	})
	if err != nil {
		t.Fatalf("seed call log: %v", err)
	}

	if err := svc.ProcessRecording(context.Background(), log.ID, "https://pbx.example.com/rec/9.mp3"); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored := repo.logs[log.ID]
	if stored.AISummary == nil || *stored.AISummary != "Caller asked about implant pricing." {
		t.Fatalf("expected summary stored, got %v", stored.AISummary)
	}
}

func TestProcessRecording_SummarizerFailureRequeues(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, &fakeQueue{}, &fakeSummarizer{err: errors.New("model unavailable")})

	if err := svc.ProcessRecording(context.Background(), uuid.New(), "https://pbx.example.com/rec/10.mp3"); err == nil {
		t.Fatal("summarizer failure must return an error for redelivery")
	}
}
