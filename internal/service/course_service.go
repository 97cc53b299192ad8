package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

// DefaultCoursePageSize is the catalogue page size.
const DefaultCoursePageSize = 6

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List searches the catalogue.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = DefaultCoursePageSize
	}
	filter.Search = strings.TrimSpace(filter.Search)

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Create adds a course. Codes are unique.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "All fields are required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be active, upcoming or completed")
	}
	code := strings.TrimSpace(req.Code)
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Course code already exists")
	}

	course := &models.Course{
		Code:        code,
		Title:       strings.TrimSpace(req.Title),
		Instructor:  strings.TrimSpace(req.Instructor),
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		Students:    req.Students,
		Duration:    strings.TrimSpace(req.Duration),
		Progress:    req.Progress,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}
