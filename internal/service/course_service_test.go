package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type courseRepoStub struct {
	courses    []models.Course
	lastFilter models.CourseFilter
	err        error
}

func (r *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	r.lastFilter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.courses, len(r.courses), nil
}

func (r *courseRepoStub) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, c := range r.courses {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = "course-1"
	r.courses = append(r.courses, *course)
	return nil
}

func validCourseRequest() dto.CreateCourseRequest {
	return dto.CreateCourseRequest{
		Code: "CS101", Title: "Intro", Instructor: "Dr. Lee", Description: "Basics",
		Status: models.CourseStatusActive, Students: 30, Duration: "12 weeks", Progress: 10,
	}
}

func TestCourseServiceListDefaults(t *testing.T) {
	repo := &courseRepoStub{}
	svc := NewCourseService(repo, nil, nil)

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Search: "  math "})
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Equal(t, DefaultCoursePageSize, repo.lastFilter.PageSize)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, "math", repo.lastFilter.Search)
	assert.Equal(t, 0, pagination.TotalPages)

	repo.err = errors.New("db down")
	_, _, err = svc.List(context.Background(), models.CourseFilter{})
	assert.Error(t, err)
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &courseRepoStub{}
	svc := NewCourseService(repo, nil, nil)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "course-1", course.ID)

	_, err = svc.Create(context.Background(), validCourseRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, nil)

	missing := validCourseRequest()
	missing.Instructor = ""
	badStatus := validCourseRequest()
	badStatus.Status = "archived"
	badProgress := validCourseRequest()
	badProgress.Progress = 120

	for _, req := range []dto.CreateCourseRequest{missing, badStatus, badProgress} {
		_, err := svc.Create(context.Background(), req)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}
