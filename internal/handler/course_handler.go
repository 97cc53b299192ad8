package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
}

// CourseHandler exposes the course catalogue.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary Search courses
// @Tags Courses
// @Produce json
// @Param search query string false "Matches title, code or instructor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, pagination, err := h.service.List(c.Request.Context(), models.CourseFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Create godoc
// @Summary Add a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := bindJSON(c, &req, "invalid course payload"); err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}
