package service

import (
	"context"
	"errors"
	"testing"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/leads/repository"
	"medicore_backend/internal/leads/scoring"
	"medicore_backend/internal/leads/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	leads      map[uuid.UUID]repository.Lead
	activities []repository.ActivityParams
	createErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	if f.createErr != nil {
		return repository.Lead{}, f.createErr
	}
	lead := repository.Lead{
		ID:         uuid.New(),
		Name:       params.Name,
		Email:      params.Email,
		Phone:      params.Phone,
		Status:     "New",
		AIScore:    params.AIScore,
		Source:     params.Source,
		AssignedTo: "Unassigned",
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, _ int) ([]repository.Lead, error) {
	leads := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		leads = append(leads, lead)
	}
	return leads, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) FindDuplicateByEmail(_ context.Context, email string, excludeID uuid.UUID) (uuid.UUID, bool, error) {
	for id, lead := range f.leads {
		if lead.Email == email && id != excludeID {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (f *fakeRepo) InsertActivity(_ context.Context, params repository.ActivityParams) error {
	f.activities = append(f.activities, params)
	return nil
}

func (f *fakeRepo) ListActivities(_ context.Context, _ int) ([]repository.Activity, error) {
	return nil, nil
}

func (f *fakeRepo) activityCount(activityType string) int {
	count := 0
	for _, activity := range f.activities {
		if activity.Type == activityType {
			count++
		}
	}
	return count
}

type fakeScorer struct {
	result scoring.Result
}

func (f fakeScorer) Score(context.Context, scoring.Candidate) scoring.Result {
	return f.result
}

type fakeQueue struct {
	enqueued []repository.Lead
	err      error
}

func (f *fakeQueue) EnqueueLeadFollowUp(_ context.Context, lead repository.Lead) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, lead)
	return nil
}

type fakeAuditQueue struct {
	entries []audit.Entry
}

func (f *fakeAuditQueue) EnqueueAuditEntry(_ context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestService(repo *fakeRepo, queue *fakeQueue) *Service {
	log := logger.New("development")
	emitter := audit.NewEmitter(&fakeAuditQueue{}, log)
	scorer := fakeScorer{result: scoring.Result{Score: 70, Explanation: "ok", NextAction: "call"}}
	return New(repo, scorer, queue, nil, emitter, log)
}

func TestCreate_DistinctEmailsProduceDistinctLeads(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeQueue{})

	first, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Ana Pop", Email: "ana@x.com", Source: transport.LeadSourceReferral,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Ion Dinu", Email: "ion@x.com", Source: transport.LeadSourceWebsite,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("expected distinct lead ids, both were %s", first.ID)
	}
	if _, err := svc.GetByID(context.Background(), first.ID); err != nil {
		t.Fatalf("first lead not observable: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), second.ID); err != nil {
		t.Fatalf("second lead not observable: %v", err)
	}
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeQueue{})

	tests := []transport.CreateLeadRequest{
		{Email: "a@x.com", Source: transport.LeadSourceWebsite},
		{Name: "A", Source: transport.LeadSourceWebsite},
		{Name: "A", Email: "a@x.com"},
	}

	for _, req := range tests {
		_, err := svc.Create(context.Background(), req)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestCreate_DefaultsAndEnrichment(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{}
	svc := newTestService(repo, queue)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Ana Pop", Email: "ana@x.com", Source: transport.LeadSourceReferral,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Status != "New" {
		t.Fatalf("expected status New, got %q", lead.Status)
	}
	if lead.AssignedTo != "Unassigned" {
		t.Fatalf("expected assignedTo Unassigned, got %q", lead.AssignedTo)
	}
	if lead.AIScore != 70 {
		t.Fatalf("expected scorer result 70, got %d", lead.AIScore)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected one follow-up enqueued, got %d", len(queue.enqueued))
	}
}

func TestCreate_PersistenceErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("connection refused")
	svc := newTestService(repo, &fakeQueue{})

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Ana", Email: "ana@x.com", Source: transport.LeadSourceWebsite,
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestCreate_EnqueueFailureLeavesLeadPersisted(t *testing.T) {
	repo := newFakeRepo()
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := newTestService(repo, queue)

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Ana", Email: "ana@x.com", Source: transport.LeadSourceWebsite,
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(repo.leads) != 1 {
		t.Fatalf("expected lead row to survive enqueue failure, got %d rows", len(repo.leads))
	}
}

func TestAnnounce_NovelLeadNotifiesCallCenter(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeQueue{})

	lead, err := repo.Create(context.Background(), repository.CreateLeadParams{
		Name: "Ana", Email: "ana@x.com", Source: "Referral", AIScore: 80,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.Announce(context.Background(), AnnounceParams{
		LeadID: lead.ID, Name: lead.Name, Email: lead.Email, AIScore: lead.AIScore,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := repo.activityCount(repository.ActivityCallCenterNotified); got != 1 {
		t.Fatalf("expected 1 notified activity, got %d", got)
	}
	if got := repo.activityCount(repository.ActivityDuplicateLeadIgnored); got != 0 {
		t.Fatalf("expected no duplicate activity, got %d", got)
	}
}

func TestAnnounce_DuplicateEmailSuppressed(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeQueue{})

	// Mirrors the real pipeline order: the first lead is created and
	// announced before the second arrives through another channel.
	first, _ := repo.Create(context.Background(), repository.CreateLeadParams{
		Name: "Ana", Email: "a@x.com", Source: "Referral",
	})
	if err := svc.Announce(context.Background(), AnnounceParams{
		LeadID: first.ID, Name: first.Name, Email: first.Email,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, _ := repo.Create(context.Background(), repository.CreateLeadParams{
		Name: "Ana Again", Email: "a@x.com", Source: "Chatbot",
	})
	if err := svc.Announce(context.Background(), AnnounceParams{
		LeadID: second.ID, Name: second.Name, Email: second.Email,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := repo.activityCount(repository.ActivityCallCenterNotified); got != 1 {
		t.Fatalf("expected exactly one notified activity, got %d", got)
	}
	if got := repo.activityCount(repository.ActivityDuplicateLeadIgnored); got != 1 {
		t.Fatalf("expected one duplicate-suppressed activity, got %d", got)
	}
	// The duplicate row itself is not deleted.
	if _, err := repo.GetByID(context.Background(), second.ID); err != nil {
		t.Fatalf("duplicate lead row should remain: %v", err)
	}
}

func TestAnnounce_RacedCreationsSuppressEachOther(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeQueue{})

	// Two channels created rows for the same email before either announce
	// ran. Each announce sees the sibling row and suppresses itself; the
	// rows stay, and no double notification is possible.
	first, _ := repo.Create(context.Background(), repository.CreateLeadParams{
		Name: "A", Email: "race@x.com", Source: "Website",
	})
	second, _ := repo.Create(context.Background(), repository.CreateLeadParams{
		Name: "B", Email: "race@x.com", Source: "Chatbot",
	})

	for _, lead := range []repository.Lead{first, second} {
		if err := svc.Announce(context.Background(), AnnounceParams{
			LeadID: lead.ID, Name: lead.Name, Email: lead.Email,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := repo.activityCount(repository.ActivityCallCenterNotified); got != 0 {
		t.Fatalf("expected no notifications when both rows pre-exist, got %d", got)
	}
	if got := repo.activityCount(repository.ActivityDuplicateLeadIgnored); got != 2 {
		t.Fatalf("expected both announces suppressed, got %d", got)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeQueue{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateLeadStatusRequest{
		Status: transport.LeadStatusContacted,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
