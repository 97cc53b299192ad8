package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates exportable attendance reports.
type ReportType string

const (
	ReportTypeDaily     ReportType = "daily"
	ReportTypeWeekly    ReportType = "weekly"
	ReportTypeMonthly   ReportType = "monthly"
	ReportTypeCourses   ReportType = "courses"
	ReportTypeStudents  ReportType = "students"
	ReportTypeDateRange ReportType = "date-range"
	ReportTypeAlerts    ReportType = "alerts"
)

// Valid reports whether the type is exportable.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeDaily, ReportTypeWeekly, ReportTypeMonthly, ReportTypeCourses,
		ReportTypeStudents, ReportTypeDateRange, ReportTypeAlerts:
		return true
	default:
		return false
	}
}

// ExportFormat enumerates supported file formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Valid reports whether the format has a renderer.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
		return true
	default:
		return false
	}
}

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous report export.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	Report       ReportType   `db:"report" json:"report"`
	Params       ExportParams `db:"params" json:"params"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
}

// ExportParams stores the report inputs as JSONB.
type ExportParams struct {
	Format    ExportFormat `json:"format"`
	Date      string       `json:"date,omitempty"`
	StartDate string       `json:"start_date,omitempty"`
	EndDate   string       `json:"end_date,omitempty"`
	Year      int          `json:"year,omitempty"`
	Course    string       `json:"course,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportParams) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan export params: %w", err)
	}
	if len(data) == 0 {
		*p = ExportParams{}
		return nil
	}
	return json.Unmarshal(data, p)
}
