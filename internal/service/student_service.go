package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type studentRepository interface {
	ListWithFaceData(ctx context.Context) ([]models.Student, error)
	Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateProfile(ctx context.Context, id string, update models.StudentProfileUpdate) error
}

// StudentService handles registration and profile use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Register stores a new student with face captures.
func (s *StudentService) Register(ctx context.Context, req dto.RegisterStudentRequest) (*models.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Student ID already exists")
	}

	student := &models.Student{
		StudentID: req.StudentID,
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		Course:    strings.TrimSpace(req.Course),
		Semester:  req.Semester,
		Section:   req.Section,
		FaceData: models.FaceData{
			Frontal:      req.FaceData.Frontal,
			LeftProfile:  req.FaceData.LeftProfile,
			RightProfile: req.FaceData.RightProfile,
			UpwardTilt:   req.FaceData.UpwardTilt,
			DownwardTilt: req.FaceData.DownwardTilt,
		},
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}
	s.logger.Info("student registered", zap.String("student_id", student.StudentID), zap.Int("poses", len(student.FaceData.Poses())))

	registered := *student
	registered.FaceData = models.FaceData{}
	return &registered, nil
}

// Exists reports whether the student id is already registered.
func (s *StudentService) Exists(ctx context.Context, studentID string) (bool, error) {
	exists, err := s.repo.ExistsByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	}
	return exists, nil
}

// Images groups every student's captures under their student id, the name the
// recognition service reports back.
func (s *StudentService) Images(ctx context.Context) ([]models.StudentImages, error) {
	students, err := s.repo.ListWithFaceData(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch students")
	}
	grouped := make([]models.StudentImages, 0, len(students))
	for _, st := range students {
		poses := st.FaceData.Poses()
		images := make([]models.FaceImage, 0, len(poses))
		for _, pose := range poses {
			images = append(images, models.FaceImage{
				PersonName: st.StudentID,
				ImageName:  pose.ImageName,
				ImageData:  pose.Data,
			})
		}
		grouped = append(grouped, models.StudentImages{PersonName: st.StudentID, Images: images})
	}
	return grouped, nil
}

// Search finds students by name, email or student id.
func (s *StudentService) Search(ctx context.Context, term string) ([]models.Student, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Search query is required")
	}
	students, err := s.repo.Search(ctx, models.StudentFilter{Search: term, Limit: 10})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a student profile.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// UpdateProfile applies the provided fields and returns the updated profile.
func (s *StudentService) UpdateProfile(ctx context.Context, id string, req dto.UpdateStudentProfileRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	update := models.StudentProfileUpdate{
		FullName: trimmed(req.FullName),
		Email:    trimmed(req.Email),
		Course:   trimmed(req.Course),
		Semester: req.Semester,
		Section:  req.Section,
	}
	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return s.Get(ctx, id)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
