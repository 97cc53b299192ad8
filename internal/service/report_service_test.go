package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/aggregation"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type reportRosterStub struct {
	students []models.Student
	courses  []string
	err      error
	mu       sync.Mutex
}

func (s *reportRosterStub) Roster(ctx context.Context, course string) ([]models.Student, error) {
	s.mu.Lock()
	s.courses = append(s.courses, course)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return aggregation.FilterRoster(s.students, course), nil
}

type reportRecordStub struct {
	records []models.AttendanceRecord
	filters []models.AttendanceFilter
	err     error
	mu      sync.Mutex
}

func (s *reportRecordStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var wanted map[string]bool
	if filter.StudentIDs != nil {
		wanted = make(map[string]bool, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			wanted[id] = true
		}
	}
	var out []models.AttendanceRecord
	for _, r := range s.records {
		if r.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !r.Date.Before(filter.To) {
			continue
		}
		if wanted != nil && !wanted[r.StudentID] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var reportNow = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func reportRoster(n int, course string) []models.Student {
	students := make([]models.Student, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, models.Student{
			StudentID: fmt.Sprintf("s%02d", i),
			FullName:  fmt.Sprintf("Student %02d", i),
			Course:    course,
		})
	}
	return students
}

func reportMark(id string, at time.Time, clock string) models.AttendanceRecord {
	return models.AttendanceRecord{StudentID: id, Date: at, Time: clock}
}

func newTestReportService(students *reportRosterStub, records *reportRecordStub) *ReportService {
	return NewReportService(ReportServiceParams{
		Students:   students,
		Attendance: records,
		Engine:     aggregation.New(aggregation.DefaultPolicy(), time.UTC),
		Now:        func() time.Time { return reportNow },
	})
}

func TestReportServiceDaily(t *testing.T) {
	day := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	records := &reportRecordStub{records: []models.AttendanceRecord{
		reportMark("s01", day.Add(8*time.Hour+50*time.Minute), "08:50"),
		reportMark("s02", day.Add(9*time.Hour+5*time.Minute), "09:05"),
		reportMark("s03", day.Add(9*time.Hour), "09:00"),
		reportMark("s04", day.Add(10*time.Hour), "10:00"),
		reportMark("s05", day.AddDate(0, 0, 1), "08:00"),
	}}
	svc := newTestReportService(&reportRosterStub{students: reportRoster(10, "CS")}, records)

	summary, err := svc.Daily(context.Background(), day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15", summary.Date)
	assert.Equal(t, 10, summary.TotalStudents)
	assert.Equal(t, 4, summary.PresentStudents)
	assert.Equal(t, 6, summary.AbsentStudents)
	assert.Equal(t, 40, summary.AttendanceRate)

	require.Len(t, records.filters, 1)
	assert.Equal(t, day, records.filters[0].From)
	assert.Equal(t, day.AddDate(0, 0, 1), records.filters[0].To)
}

func TestReportServiceTodayFetchesFourWindows(t *testing.T) {
	today := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	records := &reportRecordStub{records: []models.AttendanceRecord{
		reportMark("s01", today.Add(8*time.Hour), "08:00"),
		reportMark("s02", today.Add(9*time.Hour+30*time.Minute), "09:30"),
		reportMark("s01", today.AddDate(0, 0, -1).Add(8*time.Hour), "08:00"),
	}}
	svc := newTestReportService(&reportRosterStub{students: reportRoster(4, "CS")}, records)

	overview, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Len(t, records.filters, 4)
	assert.Equal(t, 2, overview.PresentToday.Count)
	assert.Equal(t, 1, overview.PresentToday.Change)
	assert.Equal(t, 1, overview.LateToday.Count)
	assert.Equal(t, 2, overview.AbsentToday.Count)
	assert.Equal(t, -1, overview.AbsentToday.Change)
	// Three marks this week over 4 students and 3 weekdays so far.
	assert.Equal(t, 25, overview.TotalAttendance.Rate)
	assert.Equal(t, 25, overview.TotalAttendance.Change)
}

func TestReportServiceWeeklyAndMonthly(t *testing.T) {
	records := &reportRecordStub{records: []models.AttendanceRecord{
		reportMark("s01", time.Date(2024, time.May, 13, 8, 0, 0, 0, time.UTC), "08:00"),
	}}
	svc := newTestReportService(&reportRosterStub{students: reportRoster(2, "CS")}, records)

	weekly, err := svc.Weekly(context.Background())
	require.NoError(t, err)
	require.Len(t, weekly, 7)
	assert.Equal(t, "2024-05-12", weekly[0].Date)
	assert.Equal(t, 50, weekly[1].Attendance)

	monthly, err := svc.Monthly(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, monthly, 12)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), records.filters[len(records.filters)-1].From)

	_, err = svc.Monthly(context.Background(), 12)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceStudentsFetchesOnlyPageMembers(t *testing.T) {
	records := &reportRecordStub{}
	students := &reportRosterStub{students: reportRoster(12, "CS")}
	svc := newTestReportService(students, records)

	page, err := svc.Students(context.Background(), aggregation.StudentPageQuery{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.TotalCount)
	require.Len(t, page.Rows, 5)
	assert.Equal(t, "s06", page.Rows[0].StudentID)

	require.Len(t, records.filters, 2)
	for _, f := range records.filters {
		assert.Equal(t, []string{"s06", "s07", "s08", "s09", "s10"}, f.StudentIDs)
	}
}

func TestReportServiceStudentsPastLastPage(t *testing.T) {
	records := &reportRecordStub{}
	svc := newTestReportService(&reportRosterStub{students: reportRoster(3, "CS")}, records)

	page, err := svc.Students(context.Background(), aggregation.StudentPageQuery{Page: 4, PageSize: 5, Course: "all"})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 1, page.TotalPages)
	for _, f := range records.filters {
		assert.NotNil(t, f.StudentIDs)
		assert.Empty(t, f.StudentIDs)
	}
}

func TestReportServiceStudentsExtremePaging(t *testing.T) {
	for _, q := range []aggregation.StudentPageQuery{
		{Page: 1<<62 + 1, PageSize: 2},
		{Page: 2, PageSize: math.MaxInt},
	} {
		records := &reportRecordStub{}
		svc := newTestReportService(&reportRosterStub{students: reportRoster(5, "CS")}, records)

		var page *models.StudentPage
		var err error
		require.NotPanics(t, func() {
			page, err = svc.Students(context.Background(), q)
		})
		require.NoError(t, err)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 5, page.TotalCount)
		for _, f := range records.filters {
			assert.NotNil(t, f.StudentIDs)
			assert.Empty(t, f.StudentIDs)
		}
	}
}

func TestReportServiceStudentsDefaultsPaging(t *testing.T) {
	students := &reportRosterStub{students: append(reportRoster(3, "CS"), reportRoster(2, "Math")...)}
	svc := newTestReportService(students, &reportRecordStub{})

	page, err := svc.Students(context.Background(), aggregation.StudentPageQuery{Course: "Math"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, aggregation.DefaultPolicy().DefaultPageSize, page.PageSize)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, []string{"Math"}, students.courses)
}

func TestReportServiceCoursesAndAlerts(t *testing.T) {
	roster := append(reportRoster(5, "Art"), models.Student{StudentID: "x1", FullName: "Ada", Course: "Bio"})
	var marks []models.AttendanceRecord
	for d := 0; d < 15; d++ {
		at := reportNow.AddDate(0, 0, -d)
		marks = append(marks, reportMark("x1", at, "08:00"))
	}
	svc := newTestReportService(&reportRosterStub{students: roster}, &reportRecordStub{records: marks})

	rates, err := svc.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, models.CourseRate{Name: "Art", AttendanceRate: 0}, rates[0])
	assert.Equal(t, models.CourseRate{Name: "Bio", AttendanceRate: 75}, rates[1])

	alerts, err := svc.Alerts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, models.AlertWarning, alerts[0].Type)
	assert.Equal(t, "Course attendance for Art has dropped below 0% this week. Consider taking action.", alerts[0].Message)
	for _, a := range alerts {
		assert.NotContains(t, a.Message, "Ada")
	}
}

func TestReportServiceDateRangeValidation(t *testing.T) {
	svc := newTestReportService(&reportRosterStub{}, &reportRecordStub{})
	cases := []struct {
		name       string
		start, end string
	}{
		{name: "missing", start: "", end: "2024-05-02"},
		{name: "bad start", start: "05/01/2024", end: "2024-05-02"},
		{name: "bad end", start: "2024-05-01", end: "tomorrow"},
		{name: "reversed", start: "2024-05-03", end: "2024-05-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.DateRange(context.Background(), tc.start, tc.end)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestReportServiceDateRangeOmitsEmptyDays(t *testing.T) {
	records := &reportRecordStub{records: []models.AttendanceRecord{
		reportMark("s01", time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC), "08:00"),
		reportMark("s01", time.Date(2024, time.May, 3, 8, 0, 0, 0, time.UTC), "08:00"),
		reportMark("s02", time.Date(2024, time.May, 3, 9, 0, 0, 0, time.UTC), "09:00"),
	}}
	svc := newTestReportService(&reportRosterStub{students: reportRoster(4, "CS")}, records)

	buckets, err := svc.DateRange(context.Background(), "2024-05-01", "2024-05-03")
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-05-01", buckets[0].Date)
	assert.Equal(t, "2024-05-03", buckets[1].Date)
	assert.Equal(t, 50, buckets[1].AttendanceRate)
	assert.Equal(t, time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC), records.filters[0].To)
}

func TestReportServiceStoreFailureIsUnavailable(t *testing.T) {
	svc := newTestReportService(&reportRosterStub{students: reportRoster(2, "CS")}, &reportRecordStub{err: errors.New("connection refused")})

	_, err := svc.Weekly(context.Background())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, appErr.Code)
	assert.Equal(t, 503, appErr.Status)

	svc = newTestReportService(&reportRosterStub{err: errors.New("timeout")}, &reportRecordStub{})
	_, err = svc.Students(context.Background(), aggregation.StudentPageQuery{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, appErr.Code)
}
