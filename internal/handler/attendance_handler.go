package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/internal/service"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	ByDate(ctx context.Context, raw string) (*dto.AttendanceDayResponse, error)
}

type recognizer interface {
	Recognize(ctx context.Context, req dto.RecognizeRequest) (*dto.RecognizeResponse, error)
}

// AttendanceHandler exposes marking and per-day listing.
type AttendanceHandler struct {
	attendance attendanceService
	recognizer recognizer
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(attendance attendanceService, recognizer recognizer) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, recognizer: recognizer}
}

// Mark godoc
// @Summary Mark attendance for a student
// @Description Stores one mark per student per day. A repeated mark answers 409 with the existing record.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Mark payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := bindJSON(c, &req, "invalid attendance payload"); err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyMarked) && record != nil {
			c.JSON(http.StatusConflict, response.Envelope{
				Data:  dto.MarkAttendanceResponse{Record: record, AlreadyMarked: true},
				Error: appErrors.FromError(err),
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.Created(c, dto.MarkAttendanceResponse{Record: record})
}

// Recognize godoc
// @Summary Recognise a face and mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.RecognizeRequest true "Camera frame"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /attendance/recognize [post]
func (h *AttendanceHandler) Recognize(c *gin.Context) {
	var req dto.RecognizeRequest
	if err := bindJSON(c, &req, "invalid recognition payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.recognizer.Recognize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// ByDate godoc
// @Summary Attendance of one day
// @Tags Attendance
// @Produce json
// @Param date path string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/date/{date} [get]
func (h *AttendanceHandler) ByDate(c *gin.Context) {
	day, err := h.attendance.ByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}
