package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type studentService interface {
	Register(ctx context.Context, req dto.RegisterStudentRequest) (*models.Student, error)
	Exists(ctx context.Context, studentID string) (bool, error)
	Images(ctx context.Context) ([]models.StudentImages, error)
	Search(ctx context.Context, term string) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	UpdateProfile(ctx context.Context, id string, req dto.UpdateStudentProfileRequest) (*models.Student, error)
}

// StudentHandler exposes registration and student profile endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// Register godoc
// @Summary Register a student with face captures
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/register [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := bindJSON(c, &req, "invalid student payload"); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Check godoc
// @Summary Check whether a student id is registered
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/check/{studentId} [get]
func (h *StudentHandler) Check(c *gin.Context) {
	exists, err := h.service.Exists(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StudentExistsResponse{Exists: exists}, nil)
}

// Images godoc
// @Summary Face captures grouped per student
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/all [get]
func (h *StudentHandler) Images(c *gin.Context) {
	images, err := h.service.Images(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, images, nil)
}

// Search godoc
// @Summary Search students by name, email or student id
// @Tags Settings
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /settings/students/search [get]
func (h *StudentHandler) Search(c *gin.Context) {
	students, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Student profile
// @Tags Settings
// @Produce json
// @Param id path string true "Student record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Update godoc
// @Summary Update a student profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "Student record ID"
// @Param payload body dto.UpdateStudentProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /settings/students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentProfileRequest
	if err := bindJSON(c, &req, "invalid profile payload"); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.service.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
