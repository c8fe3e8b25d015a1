package audit

import (
	"context"
	"errors"
	"testing"

	"medicore_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeEnqueuer struct {
	entries []Entry
	err     error
}

func (f *fakeEnqueuer) EnqueueAuditEntry(_ context.Context, entry Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestLogBuildsEntry(t *testing.T) {
	queue := &fakeEnqueuer{}
	emitter := NewEmitter(queue, logger.New("test"))

	emitter.Log(context.Background(), "LEAD_CREATED", Options{
		UserID:   "u1",
		TargetID: "lead-1",
		Details:  map[string]any{"source": "Website"},
	})

	if len(queue.entries) != 1 {
		t.Fatalf("expected 1 enqueued entry, got %d", len(queue.entries))
	}
	entry := queue.entries[0]
	if entry.ID == uuid.Nil {
		t.Fatal("entry must carry a generated id")
	}
	if entry.Action != "LEAD_CREATED" || entry.UserID != "u1" || entry.TargetID != "lead-1" {
		t.Fatalf("entry fields mismatch: %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Fatal("entry must carry a timestamp")
	}
}

func TestLogSwallowsEnqueueFailure(t *testing.T) {
	queue := &fakeEnqueuer{err: errors.New("redis down")}
	emitter := NewEmitter(queue, logger.New("test"))

	// Must not panic or propagate; the audited operation already succeeded.
	emitter.Log(context.Background(), "RECORD_LOCKED", Options{UserID: "u1"})
}

func TestLogGeneratesDistinctIDs(t *testing.T) {
	queue := &fakeEnqueuer{}
	emitter := NewEmitter(queue, logger.New("test"))

	emitter.Log(context.Background(), "A", Options{})
	emitter.Log(context.Background(), "A", Options{})

	if queue.entries[0].ID == queue.entries[1].ID {
		t.Fatal("each emission must get its own id")
	}
}
