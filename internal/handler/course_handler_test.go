package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type courseServiceMock struct {
	filter    models.CourseFilter
	createErr error
}

func (m *courseServiceMock) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	m.filter = filter
	return []models.Course{{Code: "CS101"}}, models.NewPagination(1, 6, 1), nil
}

func (m *courseServiceMock) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Course{ID: "c1", Code: req.Code}, nil
}

func TestCourseHandlerList(t *testing.T) {
	svc := &courseServiceMock{}
	h := NewCourseHandler(svc)

	w := serve(t, http.MethodGet, "/courses", "/courses?search=algo&page=2&limit=3", nil, nil, h.List)
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, models.CourseFilter{Search: "algo", Page: 2, PageSize: 3}, svc.filter)

	env := decode(t, w, nil)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 6, env.Pagination.PageSize)

	w = serve(t, http.MethodGet, "/courses", "/courses?page=one", nil, nil, h.List)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestCourseHandlerCreate(t *testing.T) {
	h := NewCourseHandler(&courseServiceMock{})
	body := dto.CreateCourseRequest{Code: "CS101", Title: "Intro", Instructor: "Dr. Lee", Description: "Basics", Status: "active", Duration: "12 weeks"}

	w := serve(t, http.MethodPost, "/courses", "/courses", body, adminClaims, h.Create)
	assertStatus(t, w, http.StatusCreated)

	h = NewCourseHandler(&courseServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "Course code already exists")})
	w = serve(t, http.MethodPost, "/courses", "/courses", body, adminClaims, h.Create)
	assertStatus(t, w, http.StatusConflict)
}
