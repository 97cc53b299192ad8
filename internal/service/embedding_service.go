package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/faceclient"
	"github.com/noah-isme/face-attendance-api/pkg/jobs"
)

// JobTypeEmbeddingsRebuild tags rebuild jobs on the embeddings queue.
const JobTypeEmbeddingsRebuild = "embeddings_rebuild"

const embeddingsCacheKey = "embeddings:latest"

// ErrNoEmbeddings is returned before any embeddings document was stored.
var ErrNoEmbeddings = appErrors.Clone(appErrors.ErrNotFound, "No embeddings found")

type embeddingStore interface {
	Upsert(ctx context.Context, embeddings models.Embeddings, updatedAt time.Time) (*models.EmbeddingSet, error)
	Latest(ctx context.Context) (*models.EmbeddingSet, error)
}

type studentImageSource interface {
	Images(ctx context.Context) ([]models.StudentImages, error)
}

type faceService interface {
	ProcessImages(ctx context.Context, images []models.FaceImage) (*faceclient.ProcessResult, error)
	Recognize(ctx context.Context, image string, embeddings models.Embeddings) (*faceclient.RecognizeResult, error)
}

// EmbeddingServiceParams wires EmbeddingService.
type EmbeddingServiceParams struct {
	Store    embeddingStore
	Students studentImageSource
	Face     faceService
	Cache    *CacheService
	Queue    jobDispatcher
	Metrics  *MetricsService
	Logger   *zap.Logger
	CacheTTL time.Duration
	Now      func() time.Time
}

// EmbeddingService owns the single embeddings document used for recognition.
type EmbeddingService struct {
	store    embeddingStore
	students studentImageSource
	face     faceService
	cache    *CacheService
	queue    jobDispatcher
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewEmbeddingService constructs the service.
func NewEmbeddingService(params EmbeddingServiceParams) *EmbeddingService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &EmbeddingService{
		store:    params.Store,
		students: params.Students,
		face:     params.Face,
		cache:    params.Cache,
		queue:    params.Queue,
		metrics:  params.Metrics,
		logger:   logger,
		cacheTTL: params.CacheTTL,
		now:      now,
	}
}

// SetQueue attaches the rebuild dispatcher.
func (s *EmbeddingService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Save replaces the embeddings document.
func (s *EmbeddingService) Save(ctx context.Context, req dto.SaveEmbeddingsRequest) (*models.EmbeddingSet, error) {
	if len(req.Embeddings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "embeddings are required")
	}
	return s.persist(ctx, req.Embeddings)
}

func (s *EmbeddingService) persist(ctx context.Context, embeddings models.Embeddings) (*models.EmbeddingSet, error) {
	start := time.Now()
	set, err := s.store.Upsert(ctx, embeddings, s.now().UTC())
	s.metrics.ObserveDBQuery("embeddings_upsert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save embeddings")
	}
	_ = s.cache.Invalidate(ctx, embeddingsCacheKey)
	s.logger.Info("embeddings saved", zap.Int("people", len(embeddings)))
	return set, nil
}

// Latest returns the stored document, read through the cache.
func (s *EmbeddingService) Latest(ctx context.Context) (*models.EmbeddingSet, error) {
	var cached models.EmbeddingSet
	if hit, _ := s.cache.Get(ctx, embeddingsCacheKey, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	set, err := s.store.Latest(ctx)
	s.metrics.ObserveDBQuery("embeddings_latest", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEmbeddings
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch embeddings")
	}
	_ = s.cache.Set(ctx, embeddingsCacheKey, set, s.cacheTTL)
	return set, nil
}

// EnqueueRebuild schedules a full re-extraction of embeddings.
func (s *EmbeddingService) EnqueueRebuild(ctx context.Context) (*dto.RebuildEmbeddingsResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "embedding rebuild queue not configured")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeEmbeddingsRebuild}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to enqueue embedding rebuild")
	}
	s.logger.Info("embedding rebuild queued", zap.String("job_id", job.ID))
	return &dto.RebuildEmbeddingsResponse{JobID: job.ID, Status: string(models.ExportStatusQueued)}, nil
}

// HandleRebuild is the queue handler for rebuild jobs.
func (s *EmbeddingService) HandleRebuild(ctx context.Context, job jobs.Job) error {
	set, err := s.Rebuild(ctx)
	if err != nil {
		return err
	}
	if set == nil {
		s.logger.Warn("embedding rebuild skipped, no registered faces", zap.String("job_id", job.ID))
		return nil
	}
	s.logger.Info("embedding rebuild finished", zap.String("job_id", job.ID), zap.Int("people", len(set.Embeddings)))
	return nil
}

// Rebuild extracts embeddings from every registered student's captures and
// stores them. It returns nil without writing when nobody has face data, so
// an empty roster never wipes a working document.
func (s *EmbeddingService) Rebuild(ctx context.Context) (*models.EmbeddingSet, error) {
	grouped, err := s.students.Images(ctx)
	if err != nil {
		return nil, err
	}
	images := make([]models.FaceImage, 0, len(grouped)*5)
	for _, student := range grouped {
		images = append(images, student.Images...)
	}
	if len(images) == 0 {
		return nil, nil
	}

	start := time.Now()
	result, err := s.face.ProcessImages(ctx, images)
	s.metrics.ObserveFaceService("process_images", err, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "face service failed to process images")
	}
	if len(result.Embeddings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadGateway, "face service returned no embeddings")
	}
	return s.persist(ctx, result.Embeddings)
}
