package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/middleware"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type reportService interface {
	Today(ctx context.Context) (*models.TodayOverview, error)
	Weekly(ctx context.Context) ([]models.SeriesPoint, error)
	Monthly(ctx context.Context, year int) ([]models.SeriesPoint, error)
	Courses(ctx context.Context) ([]models.CourseRate, error)
	Students(ctx context.Context, q aggregation.StudentPageQuery) (*models.StudentPage, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
	DateRange(ctx context.Context, startRaw, endRaw string) ([]models.DailyBucket, error)
}

// ReportHandler exposes the attendance report endpoints.
type ReportHandler struct {
	reports  reportService
	timezone string
}

// NewReportHandler constructs handler. timezone is echoed in response meta.
func NewReportHandler(reports reportService, timezone string) *ReportHandler {
	return &ReportHandler{reports: reports, timezone: timezone}
}

func (h *ReportHandler) respond(c *gin.Context, data interface{}, pagination *models.Pagination, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.timezone != "" {
		middleware.SetMeta(c, "timezone", h.timezone)
	}
	response.JSON(c, http.StatusOK, data, pagination, middleware.ExtractMeta(c))
}

// Today godoc
// @Summary Today's attendance overview
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reports/today [get]
func (h *ReportHandler) Today(c *gin.Context) {
	overview, err := h.reports.Today(c.Request.Context())
	h.respond(c, overview, nil, err)
}

// Weekly godoc
// @Summary Attendance for each weekday of the current week
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/weekly [get]
func (h *ReportHandler) Weekly(c *gin.Context) {
	series, err := h.reports.Weekly(c.Request.Context())
	h.respond(c, series, nil, err)
}

// Monthly godoc
// @Summary Attendance for each month of a year
// @Tags Reports
// @Produce json
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		response.Error(c, err)
		return
	}
	series, err := h.reports.Monthly(c.Request.Context(), year)
	h.respond(c, series, nil, err)
}

// Courses godoc
// @Summary Attendance rate per course over the trailing window
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/courses [get]
func (h *ReportHandler) Courses(c *gin.Context) {
	rates, err := h.reports.Courses(c.Request.Context())
	h.respond(c, rates, nil, err)
}

// Students godoc
// @Summary Paged per-student attendance
// @Tags Reports
// @Produce json
// @Param page query int false "Page"
// @Param perPage query int false "Page size"
// @Param course query string false "Course filter, 'all' for every course"
// @Success 200 {object} response.Envelope
// @Router /reports/students [get]
func (h *ReportHandler) Students(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		response.Error(c, err)
		return
	}
	perPage, err := queryInt(c, "perPage")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reports.Students(c.Request.Context(), aggregation.StudentPageQuery{
		Page:     page,
		PageSize: perPage,
		Course:   c.Query("course"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, result, models.NewPagination(result.Page, result.PageSize, result.TotalCount), nil)
}

// Alerts godoc
// @Summary Courses below the weekly threshold and students below the trailing threshold
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/alerts [get]
func (h *ReportHandler) Alerts(c *gin.Context) {
	alerts, err := h.reports.Alerts(c.Request.Context())
	h.respond(c, alerts, nil, err)
}

// DateRange godoc
// @Summary Daily attendance between two dates
// @Tags Reports
// @Produce json
// @Param startDate query string true "First day (YYYY-MM-DD)"
// @Param endDate query string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/date-range [get]
func (h *ReportHandler) DateRange(c *gin.Context) {
	buckets, err := h.reports.DateRange(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	h.respond(c, buckets, nil, err)
}
