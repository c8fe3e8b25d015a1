// Package service runs CSV bulk imports: job bookkeeping on the producer
// side, streaming row-by-row processing on the consumer side.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"medicore_backend/internal/imports/repository"
	"medicore_backend/internal/imports/transport"
	leadtransport "medicore_backend/internal/leads/transport"
	"medicore_backend/platform/apperr"
	"medicore_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the import job persistence contract.
type Repository interface {
	Create(ctx context.Context, fileName, objectKey, createdBy string) (repository.Job, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error
	Complete(ctx context.Context, id uuid.UUID, processed, failed int, errorLog []string) error
	Fail(ctx context.Context, id uuid.UUID, errorLog []string) error
	ListHistory(ctx context.Context, limit int) ([]repository.Job, error)
}

// LeadCreator is the slice of the leads service the importer drives.
type LeadCreator interface {
	Create(ctx context.Context, req leadtransport.CreateLeadRequest) (leadtransport.LeadResponse, error)
}

// ObjectStore fetches staged import files.
type ObjectStore interface {
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// Enqueuer hands an accepted job to the worker.
type Enqueuer interface {
	EnqueueImportJob(ctx context.Context, jobID, objectKey string) error
}

type Service struct {
	repo    Repository
	store   ObjectStore
	creator LeadCreator
	queue   Enqueuer
	log     *logger.Logger
}

func New(repo Repository, store ObjectStore, creator LeadCreator, queue Enqueuer, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, creator: creator, queue: queue, log: log}
}

// Start registers a Pending job and enqueues it. The caller gets the job id
// back immediately; processing happens on the worker.
func (s *Service) Start(ctx context.Context, req transport.StartImportRequest) (transport.StartImportResponse, error) {
	job, err := s.repo.Create(ctx, req.FileName, req.ObjectKey, req.CreatedBy)
	if err != nil {
		return transport.StartImportResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create import job", err)
	}

	if err := s.queue.EnqueueImportJob(ctx, job.ID.String(), job.ObjectKey); err != nil {
		return transport.StartImportResponse{}, apperr.Wrap(apperr.KindInternal, "failed to enqueue import job", err)
	}

	s.log.Info("import job accepted", "job_id", job.ID, "file_name", job.FileName)
	return transport.StartImportResponse{JobID: job.ID.String(), Status: job.Status}, nil
}

// ProcessJob runs one import to a terminal state. Row failures are captured
// in the job's error log and never abort the batch; only infrastructure
// failures before the job can be marked terminal return an error, which
// requeues the message. A Failed job is terminal and acknowledged.
func (s *Service) ProcessJob(ctx context.Context, jobID uuid.UUID, objectKey string) error {
	obj, err := s.store.Download(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("failed to fetch import file: %w", err)
	}
	defer obj.Close()

	reader := csv.NewReader(obj)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		s.log.Error("import file unreadable", "job_id", jobID, "error", err)
		return s.repo.Fail(ctx, jobID, []string{fmt.Sprintf("failed to read CSV header: %v", err)})
	}

	cols := headerIndex(header)
	if _, ok := cols["name"]; !ok {
		return s.repo.Fail(ctx, jobID, []string{"missing required column: name"})
	}
	if _, ok := cols["email"]; !ok {
		return s.repo.Fail(ctx, jobID, []string{"missing required column: email"})
	}
	if _, ok := cols["source"]; !ok {
		return s.repo.Fail(ctx, jobID, []string{"missing required column: source"})
	}

	records, err := reader.ReadAll()
	if err != nil {
		return s.repo.Fail(ctx, jobID, []string{fmt.Sprintf("failed to read CSV rows: %v", err)})
	}

	if err := s.repo.MarkProcessing(ctx, jobID, len(records)); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	processed := 0
	var errorLog []string
	for i, record := range records {
		rowNum := i + 1
		if err := s.importRow(ctx, cols, record); err != nil {
			errorLog = append(errorLog, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		processed++
	}

	failed := len(records) - processed
	s.log.Info("import job finished", "job_id", jobID, "processed", processed, "failed", failed)
	return s.repo.Complete(ctx, jobID, processed, failed, errorLog)
}

// importRow builds a create request from the row's own columns. The source
// travels with the row so an imported referral scores like a direct one.
func (s *Service) importRow(ctx context.Context, cols map[string]int, record []string) error {
	req := leadtransport.CreateLeadRequest{
		Name:   field(cols, record, "name"),
		Email:  field(cols, record, "email"),
		Phone:  field(cols, record, "phone"),
		Source: leadtransport.LeadSource(field(cols, record, "source")),
	}

	_, err := s.creator.Create(ctx, req)
	return err
}

// ListHistory returns recent jobs, newest first.
func (s *Service) ListHistory(ctx context.Context, limit int) ([]transport.JobResponse, error) {
	jobs, err := s.repo.ListHistory(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list import jobs", err)
	}

	out := make([]transport.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	return out, nil
}

func toJobResponse(job repository.Job) transport.JobResponse {
	return transport.JobResponse{
		ID:            job.ID.String(),
		FileName:      job.FileName,
		CreatedBy:     job.CreatedBy,
		Status:        job.Status,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		FailedRows:    job.FailedRows,
		ErrorLog:      job.ErrorLog,
		CreatedAt:     job.CreatedAt,
		CompletedAt:   job.CompletedAt,
	}
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(cols map[string]int, record []string, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
