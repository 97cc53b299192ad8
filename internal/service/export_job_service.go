package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/jobs"
	"github.com/noah-isme/face-attendance-api/pkg/storage"
)

// JobTypeExport tags export jobs on the shared queue.
const JobTypeExport = "report_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	ListByStatus(ctx context.Context, status models.ExportStatus, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
	Expire(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (*storage.DownloadClaims, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ExportJobConfig governs queue recovery and cleanup.
type ExportJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService manages the lifecycle of asynchronous report exports.
type ExportJobService struct {
	repo     exportJobStore
	queue    jobDispatcher
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ExportJobConfig
	now      func() time.Time
}

// NewExportJobService constructs the service. The queue may be attached later
// with SetQueue because the queue's handler is the worker built from the same repo.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:     repo,
		queue:    queue,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetQueue attaches the dispatcher used for new and recovered jobs.
func (s *ExportJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, persists the job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	if err := validateExportRequest(req); err != nil {
		return nil, err
	}
	job := &models.ExportJob{
		Report: req.Report,
		Params: models.ExportParams{
			Format:    req.Format,
			Date:      req.Date,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Year:      req.Year,
			Course:    req.Course,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	s.metrics.RecordExportJob(models.ExportStatusQueued)

	if s.queue == nil {
		return nil, s.failEnqueue(ctx, job.ID, errors.New("export queue not configured"))
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeExport}); err != nil {
		return nil, s.failEnqueue(ctx, job.ID, err)
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

func (s *ExportJobService) failEnqueue(ctx context.Context, id string, cause error) error {
	if err := s.repo.MarkFailed(ctx, id, "failed to enqueue job", s.now().UTC()); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordExportJob(models.ExportStatusFailed)
	return appErrors.Wrap(cause, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to enqueue export job")
}

// GetStatus exposes job metadata to its creator.
func (s *ExportJobService) GetStatus(ctx context.Context, id, actorID string) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != "" && job.CreatedBy != "" && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportStatusResponse{
		ID:        job.ID,
		Report:    job.Report,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, claims.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(claims.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(claims.Path),
		ContentType: ContentType(claims.Path),
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) int {
	if s.queue == nil {
		return 0
	}
	recovered := 0
	for _, status := range []models.ExportStatus{models.ExportStatusQueued, models.ExportStatusProcessing} {
		pending, err := s.repo.ListByStatus(ctx, status, 50)
		if err != nil {
			s.logger.Warn("failed to recover export jobs", zap.String("status", string(status)), zap.Error(err))
			continue
		}
		for _, job := range pending {
			if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeExport}); err != nil {
				s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			recovered++
		}
	}
	if recovered > 0 {
		s.logger.Info("recovered export jobs", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of jobs finished before the TTL cutoff and
// clears their download links.
func (s *ExportJobService) CleanupExpired(ctx context.Context) int {
	const batch = 100
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	removed := 0
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return removed
		}
		for _, job := range expired {
			if job.ResultURL != nil {
				if claims, err := s.exporter.ParseToken(extractToken(*job.ResultURL), true); err == nil {
					if err := s.exporter.Delete(claims.Path); err != nil {
						s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
					}
				}
			}
			if err := s.repo.Expire(ctx, job.ID); err != nil {
				s.logger.Warn("export cleanup expire failed", zap.String("job_id", job.ID), zap.Error(err))
				return removed
			}
			removed++
		}
		if len(expired) < batch {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	}
	return removed
}

// OnExhausted marks a job failed once the queue gives up retrying it.
func (s *ExportJobService) OnExhausted(ctx context.Context, job jobs.Job, cause error) {
	if err := s.repo.MarkFailed(ctx, job.ID, cause.Error(), s.now().UTC()); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordExportJob(models.ExportStatusFailed)
}

func (s *ExportJobService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

func validateExportRequest(req dto.ExportRequest) error {
	if !req.Report.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if !req.Format.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if req.Report == models.ReportTypeDateRange && (req.StartDate == "" || req.EndDate == "") {
		return appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required")
	}
	return nil
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo     exportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, now: time.Now}
}

// Handle processes a queue job. Errors are retried by the queue; the final
// failure is recorded by ExportJobService.OnExhausted.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	if err := w.repo.MarkProcessing(ctx, job.ID, 10); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.logger.Warn("export generation failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}
	if err := w.repo.MarkFinished(ctx, job.ID, result.URL, w.now().UTC()); err != nil {
		return err
	}
	w.metrics.RecordExportJob(models.ExportStatusFinished)
	w.logger.Info("export job finished", zap.String("job_id", job.ID), zap.String("report", string(record.Report)))
	return nil
}
