package queue

import (
	"context"
	"encoding/json"
	"testing"

	"medicore_backend/internal/config"
	"medicore_backend/internal/leads/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func newTestClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := &config.Config{
		RedisURL:   "redis://" + mr.Addr(),
		AsynqQueue: "clinic",
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { inspector.Close() })

	return client, inspector
}

func TestEnqueueLeadFollowUp(t *testing.T) {
	client, inspector := newTestClient(t)

	lead := repository.Lead{
		ID:      uuid.New(),
		Name:    "Maria Ionescu",
		Email:   "maria@clinica.ro",
		Source:  "Referral",
		AIScore: 95,
	}
	if err := client.EnqueueLeadFollowUp(context.Background(), lead); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	tasks, err := inspector.ListPendingTasks("clinic")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskLeadFollowUp {
		t.Fatalf("expected task type %q, got %q", TaskLeadFollowUp, tasks[0].Type)
	}

	var payload LeadFollowUpPayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.LeadID != lead.ID.String() || payload.Email != lead.Email || payload.AIScore != 95 {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestEnqueueMediaProcess(t *testing.T) {
	client, inspector := newTestClient(t)

	if err := client.EnqueueMediaProcess(context.Background(), "imports/abc-scan.jpg"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	tasks, err := inspector.ListPendingTasks("clinic")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != TaskMediaProcess {
		t.Fatalf("expected 1 pending %s task, got %v", TaskMediaProcess, tasks)
	}

	var payload MediaPayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ObjectKey != "imports/abc-scan.jpg" {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestEnqueueRoutesToConfiguredQueue(t *testing.T) {
	client, inspector := newTestClient(t)

	if err := client.EnqueueImportJob(context.Background(), uuid.NewString(), "imports/batch.csv"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	queues, err := inspector.Queues()
	if err != nil {
		t.Fatalf("list queues: %v", err)
	}
	if len(queues) != 1 || queues[0] != "clinic" {
		t.Fatalf("expected messages on the clinic queue only, got %v", queues)
	}
}
