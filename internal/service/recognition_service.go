package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type embeddingSource interface {
	Latest(ctx context.Context) (*models.EmbeddingSet, error)
}

type attendanceMarker interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error)
}

// RecognitionService matches a camera frame against stored embeddings and
// marks the recognised student present.
type RecognitionService struct {
	embeddings embeddingSource
	face       faceService
	attendance attendanceMarker
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewRecognitionService constructs the service.
func NewRecognitionService(embeddings embeddingSource, face faceService, attendance attendanceMarker, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *RecognitionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecognitionService{
		embeddings: embeddings,
		face:       face,
		attendance: attendance,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
	}
}

// Recognize runs one frame through the face service. An unknown face is not
// an error; the response carries Recognized=false.
func (s *RecognitionService) Recognize(ctx context.Context, req dto.RecognizeRequest) (*dto.RecognizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image is required")
	}
	set, err := s.embeddings.Latest(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.face.Recognize(ctx, req.Image, set.Embeddings)
	s.metrics.ObserveFaceService("recognize", err, time.Since(start))
	if err != nil {
		s.metrics.ObserveRecognition(RecognitionFailed)
		s.logger.Warn("face recognition failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrBadGateway.Code, appErrors.ErrBadGateway.Status, "face recognition service unavailable")
	}

	resp := &dto.RecognizeResponse{
		RecognizedName:  result.RecognizedName,
		Similarity:      result.Similarity,
		AllSimilarities: result.AllSimilarities,
	}
	if !result.Recognized() {
		s.metrics.ObserveRecognition(RecognitionUnknown)
		return resp, nil
	}
	resp.Recognized = true

	record, err := s.attendance.Mark(ctx, dto.MarkAttendanceRequest{StudentID: result.RecognizedName})
	switch {
	case errors.Is(err, ErrAlreadyMarked):
		s.metrics.ObserveRecognition(RecognitionDuplicate)
		resp.AlreadyMarked = true
		resp.Record = record
		return resp, nil
	case err != nil:
		s.metrics.ObserveRecognition(RecognitionFailed)
		return nil, err
	}
	s.metrics.ObserveRecognition(RecognitionMatched)
	resp.Record = record
	return resp, nil
}
