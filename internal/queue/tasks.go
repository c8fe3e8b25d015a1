// Package queue defines the event queue topics, payloads, and the asynq
// client and worker that move messages between producers and consumers.
// Delivery is at-least-once: every consumer must tolerate re-execution.
package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task types, one per topic.
const (
	TaskLeadFollowUp  = "leads:followup"
	TaskLeadIntake    = "leads:intake"
	TaskImportProcess = "imports:process"
	TaskAuditAppend   = "audit:append"
	TaskMediaProcess  = "media:process"
	TaskTranscribe    = "calls:transcribe"
)

// LeadFollowUpPayload announces a freshly created lead for downstream
// call-center notification and pipeline-level deduplication.
type LeadFollowUpPayload struct {
	LeadID  string `json:"leadId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Source  string `json:"source"`
	AIScore int    `json:"aiScore"`
}

// LeadIntakePayload is a candidate lead coming off the chatbot channel.
type LeadIntakePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ImportJobPayload points a consumer at a bulk import job and its CSV blob.
type ImportJobPayload struct {
	JobID     string `json:"jobId"`
	ObjectKey string `json:"objectKey"`
}

// AuditEntryPayload is an append-only audit fact. The id is generated by the
// emitter so the consumer insert stays idempotent across redeliveries.
type AuditEntryPayload struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId,omitempty"`
	TargetID  string         `json:"targetId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MediaPayload references an uploaded media blob awaiting processing.
type MediaPayload struct {
	ObjectKey string `json:"objectKey"`
}

// TranscriptionPayload asks for an AI summary of a recorded call.
type TranscriptionPayload struct {
	CallLogID    string `json:"callLogId"`
	RecordingURL string `json:"recordingUrl"`
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func NewLeadFollowUpTask(payload LeadFollowUpPayload) (*asynq.Task, error) {
	return newTask(TaskLeadFollowUp, payload)
}

func ParseLeadFollowUpPayload(task *asynq.Task) (LeadFollowUpPayload, error) {
	var payload LeadFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadFollowUpPayload{}, err
	}
	return payload, nil
}

func NewLeadIntakeTask(payload LeadIntakePayload) (*asynq.Task, error) {
	return newTask(TaskLeadIntake, payload)
}

func ParseLeadIntakePayload(task *asynq.Task) (LeadIntakePayload, error) {
	var payload LeadIntakePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadIntakePayload{}, err
	}
	return payload, nil
}

func NewImportJobTask(payload ImportJobPayload) (*asynq.Task, error) {
	return newTask(TaskImportProcess, payload)
}

func ParseImportJobPayload(task *asynq.Task) (ImportJobPayload, error) {
	var payload ImportJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ImportJobPayload{}, err
	}
	return payload, nil
}

func NewAuditEntryTask(payload AuditEntryPayload) (*asynq.Task, error) {
	return newTask(TaskAuditAppend, payload)
}

func ParseAuditEntryPayload(task *asynq.Task) (AuditEntryPayload, error) {
	var payload AuditEntryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AuditEntryPayload{}, err
	}
	return payload, nil
}

func NewMediaTask(payload MediaPayload) (*asynq.Task, error) {
	return newTask(TaskMediaProcess, payload)
}

func ParseMediaPayload(task *asynq.Task) (MediaPayload, error) {
	var payload MediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MediaPayload{}, err
	}
	return payload, nil
}

func NewTranscriptionTask(payload TranscriptionPayload) (*asynq.Task, error) {
	return newTask(TaskTranscribe, payload)
}

func ParseTranscriptionPayload(task *asynq.Task) (TranscriptionPayload, error) {
	var payload TranscriptionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TranscriptionPayload{}, err
	}
	return payload, nil
}
