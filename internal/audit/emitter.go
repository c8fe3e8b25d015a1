// Package audit records "action happened" facts without sitting on the
// critical path of the action itself. Entries are shipped through the event
// queue; a failure to enqueue is logged locally and never propagated to the
// operation being audited.
package audit

import (
	"context"
	"time"

	"medicore_backend/platform/logger"

	"github.com/google/uuid"
)

// Entry is an append-only audit record.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId,omitempty"`
	TargetID  string         `json:"targetId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Options carries the optional fields of an audit entry.
type Options struct {
	UserID   string
	TargetID string
	Details  map[string]any
}

// Enqueuer ships an entry onto the audit topic of the event queue.
type Enqueuer interface {
	EnqueueAuditEntry(ctx context.Context, entry Entry) error
}

// Emitter constructs and dispatches audit entries.
type Emitter struct {
	queue Enqueuer
	log   *logger.Logger
}

// NewEmitter creates an audit emitter.
func NewEmitter(queue Enqueuer, log *logger.Logger) *Emitter {
	return &Emitter{queue: queue, log: log}
}

// Log builds an entry and enqueues it. The entry id is generated here so the
// consumer-side insert stays idempotent across queue redeliveries.
func (e *Emitter) Log(ctx context.Context, action string, opts Options) {
	entry := Entry{
		ID:        uuid.New(),
		Action:    action,
		UserID:    opts.UserID,
		TargetID:  opts.TargetID,
		Details:   opts.Details,
		Timestamp: time.Now().UTC(),
	}

	if err := e.queue.EnqueueAuditEntry(ctx, entry); err != nil {
		e.log.Error("failed to dispatch audit entry", "action", action, "error", err)
	}
}
