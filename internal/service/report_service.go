package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/internal/repository"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
	"github.com/edulibrary/edulibrary-api/pkg/jobs"
	"github.com/edulibrary/edulibrary-api/pkg/storage"
)

const reportJobType = "library_snapshot"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
}

// ReportService manages asynchronous library snapshot reports: create a job,
// poll its status, download the rendered file through a signed token.
type ReportService struct {
	jobs    reportJobStore
	exports *ExportService
	queue   *jobs.Queue
	storage *storage.LocalStorage
	logger  *zap.Logger
}

// NewReportService constructs a report service. Attach the queue with
// SetQueue after constructing it with this service's ProcessJob handler.
func NewReportService(jobStore reportJobStore, exports *ExportService, store *storage.LocalStorage, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		jobs:    jobStore,
		exports: exports,
		storage: store,
		logger:  logger,
	}
}

// SetQueue wires the background queue used for report processing.
func (s *ReportService) SetQueue(queue *jobs.Queue) {
	s.queue = queue
}

// CreateJob persists a queued report job and enqueues it for processing.
func (s *ReportService) CreateJob(ctx context.Context, actor *models.JWTClaims, format models.ReportFormat) (*models.ReportJob, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrStorageUnavailable, "report generation is disabled")
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		Format:    format,
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create report job: %w", err)
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		s.failJob(context.Background(), job.ID, err)
		return nil, fmt.Errorf("enqueue report job: %w", err)
	}

	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("format", string(format)))
	return job, nil
}

// GetJob returns the current state of a report job.
func (s *ReportService) GetJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find report job: %w", err)
	}
	return job, nil
}

// OpenDownload validates a signed token and opens the rendered file.
func (s *ReportService) OpenDownload(ctx context.Context, token string) (*os.File, *models.ReportJob, error) {
	jobID, relPath, err := s.exports.Resolve(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.ReportStatusCompleted {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "report is not ready")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open report file: %w", err)
	}
	return file, job, nil
}

// ProcessJob is the queue handler: it renders the snapshot and records the
// outcome on the job row.
func (s *ReportService) ProcessJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected report payload: %T", job.Payload)
	}

	stored, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job: %w", err)
	}

	now := time.Now().UTC()
	processing := models.ReportStatusProcessing
	progress := 10
	if err := s.jobs.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:    &processing,
		Progress:  &progress,
		StartedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	result, err := s.exports.GenerateLibrarySnapshot(ctx, stored)
	if err != nil {
		s.failJob(ctx, jobID, err)
		return err
	}

	finished := time.Now().UTC()
	completed := models.ReportStatusCompleted
	done := 100
	resultURL := "/reports/download?token=" + result.Token
	if err := s.jobs.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:     &completed,
		Progress:   &done,
		FilePath:   &result.RelPath,
		ResultURL:  &resultURL,
		FinishedAt: &finished,
	}); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	return nil
}

func (s *ReportService) failJob(ctx context.Context, jobID string, cause error) {
	failed := models.ReportStatusFailed
	message := cause.Error()
	finished := time.Now().UTC()
	if err := s.jobs.Update(ctx, jobID, repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &finished,
	}); err != nil {
		s.logger.Error("failed to record report failure", zap.String("job_id", jobID), zap.Error(err))
	}
}
