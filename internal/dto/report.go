package dto

import "github.com/noah-isme/face-attendance-api/internal/models"

// ExportRequest captures POST /reports/exports payload.
type ExportRequest struct {
	Report    models.ReportType   `json:"report"`
	Format    models.ExportFormat `json:"format"`
	Date      string              `json:"date,omitempty"`
	StartDate string              `json:"startDate,omitempty"`
	EndDate   string              `json:"endDate,omitempty"`
	Year      int                 `json:"year,omitempty"`
	Course    string              `json:"course,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Report    models.ReportType   `json:"report"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
