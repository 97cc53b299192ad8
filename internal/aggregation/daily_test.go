package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

func TestDailySummary(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 10)
	records := []models.AttendanceRecord{
		mark("CS101-01", wednesday, "08:50"),
		mark("CS101-02", wednesday, "09:05"),
		mark("CS101-03", wednesday, "09:00"),
		mark("CS101-04", wednesday, "10:00"),
		mark("CS101-05", wednesday.AddDate(0, 0, -1), "08:00"),
	}

	got := e.DailySummary(wednesday, roster, records)
	assert.Equal(t, models.DailySummary{
		Date:            "2024-05-15",
		TotalStudents:   10,
		PresentStudents: 4,
		AbsentStudents:  6,
		AttendanceRate:  40,
	}, got)
}

func TestDailySummaryEmptyRoster(t *testing.T) {
	e := newEngine()
	got := e.DailySummary(wednesday, nil, nil)
	assert.Equal(t, 0, got.AttendanceRate)
	assert.Equal(t, 0, got.PresentStudents+got.AbsentStudents)
}

func TestDailySummaryCountsAlwaysSumToRoster(t *testing.T) {
	e := newEngine()
	for n := 0; n <= 12; n += 3 {
		roster := makeRoster("X", n)
		var records []models.AttendanceRecord
		for i := 0; i < n/2; i++ {
			records = append(records, mark(roster[i].StudentID, wednesday, "08:00"))
		}
		got := e.DailySummary(wednesday, roster, records)
		assert.Equal(t, n, got.PresentStudents+got.AbsentStudents)
		assert.GreaterOrEqual(t, got.AttendanceRate, 0)
		assert.LessOrEqual(t, got.AttendanceRate, 100)
	}
}

func TestTodayOverview(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 10)
	yesterday := wednesday.AddDate(0, 0, -1)

	today := []models.AttendanceRecord{
		mark("CS101-01", wednesday, "08:50"),
		mark("CS101-02", wednesday, "09:05"),
		mark("CS101-03", wednesday, "09:00"),
		mark("CS101-04", wednesday, "10:00"),
	}
	prev := []models.AttendanceRecord{
		mark("CS101-01", yesterday, "09:30"),
		mark("CS101-02", yesterday, "08:30"),
	}
	thisWeek := append(append([]models.AttendanceRecord{}, today...), prev...)
	// Duplicate mark on the same day counts once.
	thisWeek = append(thisWeek, mark("CS101-01", wednesday.Add(time.Hour), "10:30"))

	var lastWeek []models.AttendanceRecord
	for i := 0; i < 25; i++ {
		day := time.Date(2024, time.May, 6+i%5, 8, 0, 0, 0, time.UTC)
		lastWeek = append(lastWeek, mark(roster[i/5].StudentID, day, "08:00"))
	}

	got := e.TodayOverview(wednesday, OverviewInput{
		Roster:    roster,
		Today:     today,
		Yesterday: prev,
		ThisWeek:  thisWeek,
		LastWeek:  lastWeek,
	})

	assert.Equal(t, models.CountChange{Count: 4, Change: 2}, got.PresentToday)
	assert.Equal(t, models.CountChange{Count: 6, Change: -2}, got.AbsentToday)
	assert.Equal(t, models.CountChange{Count: 2, Change: 1}, got.LateToday)
	// 6 distinct pairs over 10 students * 3 days so far; last week 25 over 50.
	assert.Equal(t, models.RateChange{Rate: 20, Change: -30}, got.TotalAttendance)
}

func TestTodayOverviewOnSundayHasZeroWeekRate(t *testing.T) {
	e := newEngine()
	sunday := time.Date(2024, time.May, 12, 10, 0, 0, 0, time.UTC)
	roster := makeRoster("CS101", 2)
	records := []models.AttendanceRecord{mark("CS101-01", sunday, "08:00")}

	got := e.TodayOverview(sunday, OverviewInput{Roster: roster, Today: records, ThisWeek: records})
	assert.Equal(t, 0, got.TotalAttendance.Rate)
}

func TestDateRangeDailyOmitsEmptyDays(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 4)
	records := []models.AttendanceRecord{
		mark("CS101-01", utcDay(time.May, 15), "08:00"),
		mark("CS101-01", utcDay(time.May, 13), "08:00"),
		mark("CS101-02", utcDay(time.May, 13), "08:10"),
		// Same student twice on one day is one present student.
		mark("CS101-02", utcDay(time.May, 13).Add(2*time.Hour), "10:10"),
		mark("CS101-03", time.Date(2024, time.May, 16, 23, 59, 59, 0, time.UTC), "23:59"),
		mark("CS101-04", utcDay(time.May, 11), "08:00"),
		mark("CS101-04", time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC), "00:00"),
	}

	start := time.Date(2024, time.May, 12, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 16, 0, 0, 0, 0, time.UTC)
	got := e.DateRangeDaily(roster, records, start, end)

	require.Len(t, got, 3)
	assert.Equal(t, models.DailyBucket{Date: "2024-05-13", TotalStudents: 4, PresentStudents: 2, AbsentStudents: 2, AttendanceRate: 50}, got[0])
	assert.Equal(t, "2024-05-15", got[1].Date)
	assert.Equal(t, 25, got[1].AttendanceRate)
	assert.Equal(t, "2024-05-16", got[2].Date)
	for _, b := range got {
		assert.NotEqual(t, "2024-05-14", b.Date)
	}
}

func TestDateRangeDailyReversedRangeIsEmpty(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 1)
	records := []models.AttendanceRecord{mark("CS101-01", utcDay(time.May, 13), "08:00")}

	assert.Empty(t, e.DateRangeDaily(roster, records, utcDay(time.May, 20), utcDay(time.May, 10)))
}
