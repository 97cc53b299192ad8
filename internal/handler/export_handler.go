package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/service"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type exportJobService interface {
	CreateJob(ctx context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id, actorID string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous report exports.
type ExportHandler struct {
	jobs exportJobService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(jobs exportJobService) *ExportHandler {
	return &ExportHandler{jobs: jobs}
}

// Create godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reports/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := bindJSON(c, &req, "invalid export payload"); err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": contentDisposition(download.Filename),
		"Cache-Control":       "private, no-store",
		"Expires":             download.ExpiresAt.UTC().Format(time.RFC1123),
	})
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
