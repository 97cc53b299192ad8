package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type rosterReader interface {
	Roster(ctx context.Context, course string) ([]models.Student, error)
}

type recordReader interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// ReportServiceParams wires ReportService.
type ReportServiceParams struct {
	Students   rosterReader
	Attendance recordReader
	Engine     *aggregation.Engine
	Metrics    *MetricsService
	Logger     *zap.Logger
	Now        func() time.Time
}

// ReportService loads roster and record windows and hands them to the engine.
// Each window is one range query; the reads of a report run concurrently.
type ReportService struct {
	students   rosterReader
	attendance recordReader
	engine     *aggregation.Engine
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := params.Engine
	if engine == nil {
		engine = aggregation.New(aggregation.DefaultPolicy(), nil)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		students:   params.Students,
		attendance: params.Attendance,
		engine:     engine,
		metrics:    params.Metrics,
		logger:     logger,
		now:        now,
	}
}

// Engine exposes the aggregation engine used by the service.
func (s *ReportService) Engine() *aggregation.Engine {
	return s.engine
}

// ParseDay parses a YYYY-MM-DD day in the report timezone.
func (s *ReportService) ParseDay(raw string) (time.Time, error) {
	day, err := s.engine.ParseDay(raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

// Daily summarises one calendar day.
func (s *ReportService) Daily(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	defer s.observe("daily", time.Now())
	from, to := s.engine.DayBounds(date)
	roster, windows, err := s.load(ctx, "daily", models.AttendanceFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	summary := s.engine.DailySummary(date, roster, windows[0])
	return &summary, nil
}

// Today compares today with yesterday and this week with last week.
func (s *ReportService) Today(ctx context.Context) (*models.TodayOverview, error) {
	defer s.observe("today", time.Now())
	now := s.now()
	todayStart, tomorrow := s.engine.DayBounds(now)
	weekStart := s.engine.StartOfWeek(now)

	roster, windows, err := s.load(ctx, "today",
		models.AttendanceFilter{From: todayStart, To: tomorrow},
		models.AttendanceFilter{From: todayStart.AddDate(0, 0, -1), To: todayStart},
		models.AttendanceFilter{From: weekStart, To: tomorrow},
		models.AttendanceFilter{From: weekStart.AddDate(0, 0, -7), To: weekStart},
	)
	if err != nil {
		return nil, err
	}
	overview := s.engine.TodayOverview(now, aggregation.OverviewInput{
		Roster:    roster,
		Today:     windows[0],
		Yesterday: windows[1],
		ThisWeek:  windows[2],
		LastWeek:  windows[3],
	})
	return &overview, nil
}

// Weekly returns the Sunday..Saturday series of the current week.
func (s *ReportService) Weekly(ctx context.Context) ([]models.SeriesPoint, error) {
	defer s.observe("weekly", time.Now())
	now := s.now()
	from, to := s.engine.WeekBounds(now)
	roster, windows, err := s.load(ctx, "weekly", models.AttendanceFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return s.engine.WeeklySeries(now, roster, windows[0]), nil
}

// Monthly returns the January..December series of year; zero means the current year.
func (s *ReportService) Monthly(ctx context.Context, year int) ([]models.SeriesPoint, error) {
	defer s.observe("monthly", time.Now())
	if year == 0 {
		year = s.now().In(s.engine.Location()).Year()
	}
	if year < 1970 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	from, to := s.engine.YearBounds(year)
	roster, windows, err := s.load(ctx, "monthly", models.AttendanceFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return s.engine.MonthlySeries(year, roster, windows[0]), nil
}

// Courses returns per-course rates over the trailing window.
func (s *ReportService) Courses(ctx context.Context) ([]models.CourseRate, error) {
	defer s.observe("courses", time.Now())
	from := s.engine.TrailingWindowStart(s.now())
	roster, windows, err := s.load(ctx, "courses", models.AttendanceFilter{From: from})
	if err != nil {
		return nil, err
	}
	return s.engine.CourseRates(roster, windows[0]), nil
}

// Students returns one page of the student report. Records are only fetched
// for the students on the requested page.
func (s *ReportService) Students(ctx context.Context, q aggregation.StudentPageQuery) (*models.StudentPage, error) {
	defer s.observe("students", time.Now())
	now := s.now()
	q = q.Normalize(s.engine.Policy().DefaultPageSize)

	roster, err := s.fetchRoster(ctx, "students", q.Course)
	if err != nil {
		return nil, s.storeError("students", err)
	}
	ids := pageStudentIDs(aggregation.FilterRoster(roster, q.Course), q)

	todayStart, tomorrow := s.engine.DayBounds(now)
	windows, err := s.records(ctx, "students",
		models.AttendanceFilter{From: todayStart, To: tomorrow, StudentIDs: ids},
		models.AttendanceFilter{From: s.engine.TrailingWindowStart(now), StudentIDs: ids},
	)
	if err != nil {
		return nil, err
	}
	page := s.engine.StudentPage(roster, windows[0], windows[1], q)
	return &page, nil
}

// Alerts recomputes course and student alerts.
func (s *ReportService) Alerts(ctx context.Context) ([]models.Alert, error) {
	defer s.observe("alerts", time.Now())
	now := s.now()
	_, tomorrow := s.engine.DayBounds(now)
	roster, windows, err := s.load(ctx, "alerts",
		models.AttendanceFilter{From: s.engine.StartOfWeek(now), To: tomorrow},
		models.AttendanceFilter{From: s.engine.TrailingWindowStart(now)},
	)
	if err != nil {
		return nil, err
	}
	return s.engine.Alerts(now, roster, windows[0], windows[1]), nil
}

// DateRange returns one bucket per day with records in [start, end].
func (s *ReportService) DateRange(ctx context.Context, startRaw, endRaw string) ([]models.DailyBucket, error) {
	defer s.observe("date_range", time.Now())
	if startRaw == "" || endRaw == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required")
	}
	start, err := s.engine.ParseDay(startRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}
	end, err := s.engine.ParseDay(endRaw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}
	_, to := s.engine.DayBounds(end)
	roster, windows, err := s.load(ctx, "date_range", models.AttendanceFilter{From: start, To: to})
	if err != nil {
		return nil, err
	}
	return s.engine.DateRangeDaily(roster, windows[0], start, end), nil
}

// load fetches the full roster and every window concurrently.
func (s *ReportService) load(ctx context.Context, report string, windows ...models.AttendanceFilter) ([]models.Student, [][]models.AttendanceRecord, error) {
	g, gctx := errgroup.WithContext(ctx)
	var roster []models.Student
	g.Go(func() error {
		var err error
		roster, err = s.fetchRoster(gctx, report, "")
		return err
	})
	results := make([][]models.AttendanceRecord, len(windows))
	for i := range windows {
		i := i
		g.Go(func() error {
			var err error
			results[i], err = s.fetchRecords(gctx, report, windows[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, s.storeError(report, err)
	}
	return roster, results, nil
}

func (s *ReportService) records(ctx context.Context, report string, windows ...models.AttendanceFilter) ([][]models.AttendanceRecord, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([][]models.AttendanceRecord, len(windows))
	for i := range windows {
		i := i
		g.Go(func() error {
			var err error
			results[i], err = s.fetchRecords(gctx, report, windows[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.storeError(report, err)
	}
	return results, nil
}

func (s *ReportService) fetchRoster(ctx context.Context, report, course string) ([]models.Student, error) {
	start := time.Now()
	roster, err := s.students.Roster(ctx, course)
	s.metrics.ObserveDBQuery(report+"_roster", time.Since(start))
	return roster, err
}

func (s *ReportService) fetchRecords(ctx context.Context, report string, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	start := time.Now()
	records, err := s.attendance.List(ctx, filter)
	s.metrics.ObserveDBQuery(report+"_records", time.Since(start))
	return records, err
}

func (s *ReportService) storeError(report string, err error) error {
	s.logger.Warn("report store read failed", zap.String("report", report), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "attendance store unavailable")
}

func (s *ReportService) observe(report string, start time.Time) {
	s.metrics.ObserveReport(report, time.Since(start))
}

// pageStudentIDs returns the ids on the page selected by q. An out-of-range
// page yields an empty, non-nil set so no records are fetched.
func pageStudentIDs(filtered []models.Student, q aggregation.StudentPageQuery) []string {
	from, to := q.Bounds(len(filtered))
	ids := make([]string, 0, to-from)
	for _, st := range filtered[from:to] {
		ids = append(ids, st.StudentID)
	}
	return ids
}
