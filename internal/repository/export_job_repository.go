package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

const exportJobColumns = `id, report, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ExportJobRepository persists export job state.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a queued job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs (` + exportJobColumns + `)
VALUES (:id, :report, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID returns a job or sql.ErrNoRows.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return &job, nil
}

// MarkProcessing moves a job into PROCESSING with the given progress.
func (r *ExportJobRepository) MarkProcessing(ctx context.Context, id string, progress int) error {
	const query = `UPDATE export_jobs SET status = $1, progress = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, models.ExportStatusProcessing, progress, id); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}
	return nil
}

// MarkFinished stores the download URL and completes the job.
func (r *ExportJobRepository) MarkFinished(ctx context.Context, id, resultURL string, at time.Time) error {
	const query = `UPDATE export_jobs SET status = $1, progress = 100, result_url = $2, finished_at = $3, error_message = NULL WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportStatusFinished, resultURL, at, id); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	const query = `UPDATE export_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportStatusFailed, reason, at, id); err != nil {
		return fmt.Errorf("mark export job failed: %w", err)
	}
	return nil
}

// ListByStatus returns jobs in the given state, oldest first. Used to resume
// queued work after a restart.
func (r *ExportJobRepository) ListByStatus(ctx context.Context, status models.ExportStatus, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, status, limit); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns completed jobs whose files are due for cleanup.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs
WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished export jobs: %w", err)
	}
	return jobs, nil
}

// Expire clears the result of a cleaned-up job.
func (r *ExportJobRepository) Expire(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE export_jobs SET result_url = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("expire export job: %w", err)
	}
	return nil
}
