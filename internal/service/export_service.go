package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/export"
	"github.com/noah-isme/face-attendance-api/pkg/storage"
)

// exportPageSize bounds each student page read while exporting the full roster.
const exportPageSize = 200

type reportSource interface {
	ParseDay(raw string) (time.Time, error)
	Daily(ctx context.Context, date time.Time) (*models.DailySummary, error)
	Weekly(ctx context.Context) ([]models.SeriesPoint, error)
	Monthly(ctx context.Context, year int) ([]models.SeriesPoint, error)
	Courses(ctx context.Context) ([]models.CourseRate, error)
	Students(ctx context.Context, q aggregation.StudentPageQuery) (*models.StudentPage, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
	DateRange(ctx context.Context, startRaw, endRaw string) ([]models.DailyBucket, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders attendance reports to files and signs download links.
type ExportService struct {
	reports reportSource
	storage fileStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		reports: reports,
		storage: store,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate builds the job's report, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := export.ForFormat(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	dataset, err := s.buildDataset(ctx, job.Report, job.Params)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	s.logger.Info("export rendered",
		zap.String("job_id", job.ID),
		zap.String("report", string(job.Report)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (*storage.DownloadClaims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ContentType reports the MIME type served for a stored file name.
func ContentType(relPath string) string {
	idx := strings.LastIndex(relPath, ".")
	if idx < 0 {
		return "application/octet-stream"
	}
	renderer, err := export.ForFormat(relPath[idx+1:])
	if err != nil {
		return "application/octet-stream"
	}
	return renderer.ContentType()
}

func (s *ExportService) buildFilename(job *models.ExportJob, ext string) string {
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(string(job.Report)), sanitizeFilename(job.ID), stamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", ".", "-")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, report models.ReportType, params models.ExportParams) (export.Dataset, error) {
	switch report {
	case models.ReportTypeDaily:
		return s.dailyDataset(ctx, params)
	case models.ReportTypeWeekly:
		points, err := s.reports.Weekly(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		return seriesDataset("Weekly Attendance", "Day", points), nil
	case models.ReportTypeMonthly:
		points, err := s.reports.Monthly(ctx, params.Year)
		if err != nil {
			return export.Dataset{}, err
		}
		title := "Monthly Attendance"
		if params.Year > 0 {
			title = fmt.Sprintf("Monthly Attendance %d", params.Year)
		}
		return seriesDataset(title, "Month", points), nil
	case models.ReportTypeCourses:
		return s.coursesDataset(ctx)
	case models.ReportTypeStudents:
		return s.studentsDataset(ctx, params.Course)
	case models.ReportTypeDateRange:
		return s.dateRangeDataset(ctx, params)
	case models.ReportTypeAlerts:
		return s.alertsDataset(ctx)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", report)
	}
}

func (s *ExportService) dailyDataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	day := s.now()
	if params.Date != "" {
		parsed, err := s.reports.ParseDay(params.Date)
		if err != nil {
			return export.Dataset{}, err
		}
		day = parsed
	}
	summary, err := s.reports.Daily(ctx, day)
	if err != nil {
		return export.Dataset{}, err
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Daily Attendance %s", summary.Date),
		Headers: []string{"Date", "Total", "Present", "Absent", "Rate (%)"},
		Rows: []map[string]string{{
			"Date":     summary.Date,
			"Total":    strconv.Itoa(summary.TotalStudents),
			"Present":  strconv.Itoa(summary.PresentStudents),
			"Absent":   strconv.Itoa(summary.AbsentStudents),
			"Rate (%)": strconv.Itoa(summary.AttendanceRate),
		}},
	}, nil
}

func seriesDataset(title, label string, points []models.SeriesPoint) export.Dataset {
	withAbsent := len(points) > 0 && points[0].Absent != nil
	headers := []string{label, "Attendance (%)"}
	if withAbsent {
		headers = []string{label, "Date", "Attendance (%)", "Absent (%)"}
	}
	rows := make([]map[string]string, 0, len(points))
	for _, p := range points {
		row := map[string]string{label: p.Name, "Attendance (%)": strconv.Itoa(p.Attendance)}
		if withAbsent {
			row["Date"] = p.Date
			if p.Absent != nil {
				row["Absent (%)"] = strconv.Itoa(*p.Absent)
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}

func (s *ExportService) coursesDataset(ctx context.Context) (export.Dataset, error) {
	rates, err := s.reports.Courses(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	rows := make([]map[string]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, map[string]string{"Course": r.Name, "Attendance (%)": strconv.Itoa(r.AttendanceRate)})
	}
	return export.Dataset{
		Title:   "Course Attendance",
		Headers: []string{"Course", "Attendance (%)"},
		Rows:    rows,
	}, nil
}

func (s *ExportService) studentsDataset(ctx context.Context, course string) (export.Dataset, error) {
	headers := []string{"Student ID", "Name", "Course", "Status", "Days Present", "Attendance (%)"}
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		result, err := s.reports.Students(ctx, aggregation.StudentPageQuery{Page: page, PageSize: exportPageSize, Course: course})
		if err != nil {
			return export.Dataset{}, err
		}
		for _, r := range result.Rows {
			rows = append(rows, map[string]string{
				"Student ID":     r.StudentID,
				"Name":           r.Name,
				"Course":         r.Course,
				"Status":         string(r.Status),
				"Days Present":   strconv.Itoa(r.DaysPresent),
				"Attendance (%)": strconv.Itoa(r.Percentage),
			})
		}
		if page >= result.TotalPages {
			break
		}
	}
	title := "Student Attendance"
	if course != "" && course != "all" {
		title = fmt.Sprintf("Student Attendance %s", course)
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}, nil
}

func (s *ExportService) dateRangeDataset(ctx context.Context, params models.ExportParams) (export.Dataset, error) {
	buckets, err := s.reports.DateRange(ctx, params.StartDate, params.EndDate)
	if err != nil {
		return export.Dataset{}, err
	}
	rows := make([]map[string]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, map[string]string{
			"Date":     b.Date,
			"Total":    strconv.Itoa(b.TotalStudents),
			"Present":  strconv.Itoa(b.PresentStudents),
			"Absent":   strconv.Itoa(b.AbsentStudents),
			"Rate (%)": strconv.Itoa(b.AttendanceRate),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Attendance %s to %s", params.StartDate, params.EndDate),
		Headers: []string{"Date", "Total", "Present", "Absent", "Rate (%)"},
		Rows:    rows,
	}, nil
}

func (s *ExportService) alertsDataset(ctx context.Context) (export.Dataset, error) {
	alerts, err := s.reports.Alerts(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	rows := make([]map[string]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, map[string]string{"Severity": string(a.Type), "Message": a.Message})
	}
	return export.Dataset{
		Title:   "Attendance Alerts",
		Headers: []string{"Severity", "Message"},
		Rows:    rows,
	}, nil
}
