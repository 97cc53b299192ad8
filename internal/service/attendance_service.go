package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

var clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?(\s?[AaPp][Mm])?$`)

// ErrAlreadyMarked is returned when a student already has a mark today.
var ErrAlreadyMarked = appErrors.Clone(appErrors.ErrConflict, "Attendance already marked for today")

type attendanceStudentReader interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Roster(ctx context.Context, course string) ([]models.Student, error)
}

type attendanceStore interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindForStudent(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// AttendanceServiceParams wires AttendanceService.
type AttendanceServiceParams struct {
	Students   attendanceStudentReader
	Attendance attendanceStore
	Engine     *aggregation.Engine
	Validator  *validator.Validate
	Metrics    *MetricsService
	Logger     *zap.Logger
	Now        func() time.Time
}

// AttendanceService records marks and lists a day's marks.
type AttendanceService struct {
	students   attendanceStudentReader
	attendance attendanceStore
	engine     *aggregation.Engine
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	svc := &AttendanceService{
		students:   params.Students,
		attendance: params.Attendance,
		engine:     params.Engine,
		validator:  params.Validator,
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        params.Now,
	}
	if svc.engine == nil {
		svc.engine = aggregation.New(aggregation.DefaultPolicy(), nil)
	}
	if svc.validator == nil {
		svc.validator = validator.New()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Mark stores today's mark for the student. Name and course are copied from
// the registered student. A second mark on the same day returns the existing
// record together with ErrAlreadyMarked.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Time = strings.TrimSpace(req.Time)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID is required")
	}
	if req.Time != "" && (!clockPattern.MatchString(req.Time) || !aggregation.ValidClock(req.Time)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must be formatted as HH:MM")
	}

	student, err := s.students.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	now := s.now().In(s.engine.Location())
	from, to := s.engine.DayBounds(now)
	if existing, err := s.existing(ctx, student.StudentID, from, to); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return existing, ErrAlreadyMarked
	}

	clock := req.Time
	if clock == "" {
		clock = now.Format("15:04")
	}
	record := &models.AttendanceRecord{
		StudentID: student.StudentID,
		FullName:  student.FullName,
		Course:    student.Course,
		Date:      now,
		Time:      clock,
		Day:       from,
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrAttendanceExists) {
			existing, findErr := s.existing(ctx, student.StudentID, from, to)
			if findErr != nil {
				return nil, findErr
			}
			return existing, ErrAlreadyMarked
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	status := models.AttendanceStatusPresent
	if s.engine.IsLate(clock) {
		status = models.AttendanceStatusLate
	}
	s.metrics.RecordAttendanceMark(status)
	s.logger.Info("attendance marked",
		zap.String("student_id", record.StudentID),
		zap.String("course", record.Course),
		zap.String("status", string(status)),
	)
	return record, nil
}

func (s *AttendanceService) existing(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceRecord, error) {
	record, err := s.attendance.FindForStudent(ctx, studentID, from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	return record, nil
}

// ByDate lists the marks of one day in mark order with the day's summary.
func (s *AttendanceService) ByDate(ctx context.Context, raw string) (*dto.AttendanceDayResponse, error) {
	day, err := s.engine.ParseDay(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	from, to := s.engine.DayBounds(day)

	roster, err := s.students.Roster(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	records, err := s.attendance.List(ctx, models.AttendanceFilter{From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch attendance")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}

	return &dto.AttendanceDayResponse{
		Date:    s.engine.DayKey(day),
		Records: records,
		Stats:   s.engine.DailySummary(day, roster, records),
	}, nil
}
