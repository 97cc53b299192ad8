package aggregation

import (
	"sort"
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// DailySummary counts the records falling on date's calendar day.
// Presence is the record count; the one-per-day invariant is assumed.
func (e *Engine) DailySummary(date time.Time, roster []models.Student, records []models.AttendanceRecord) models.DailySummary {
	total := len(roster)
	present := len(e.inDay(records, date))
	return models.DailySummary{
		Date:            e.DayKey(date),
		TotalStudents:   total,
		PresentStudents: present,
		AbsentStudents:  total - present,
		AttendanceRate:  rate(present, total),
	}
}

// DateRangeDaily groups records in the inclusive day range [start, end] by day.
// Days without records are omitted. Output is ascending by date.
func (e *Engine) DateRangeDaily(roster []models.Student, records []models.AttendanceRecord, start, end time.Time) []models.DailyBucket {
	from := e.StartOfDay(start)
	_, to := e.DayBounds(end)
	total := len(roster)

	present := make(map[string]map[string]struct{})
	for _, r := range records {
		if !within(r.Date, from, to) {
			continue
		}
		key := e.DayKey(r.Date)
		ids, ok := present[key]
		if !ok {
			ids = make(map[string]struct{})
			present[key] = ids
		}
		ids[r.StudentID] = struct{}{}
	}

	days := make([]string, 0, len(present))
	for day := range present {
		days = append(days, day)
	}
	sort.Strings(days)

	buckets := make([]models.DailyBucket, 0, len(days))
	for _, day := range days {
		count := len(present[day])
		buckets = append(buckets, models.DailyBucket{
			Date:            day,
			TotalStudents:   total,
			PresentStudents: count,
			AbsentStudents:  total - count,
			AttendanceRate:  rate(count, total),
		})
	}
	return buckets
}

// OverviewInput bundles the windows TodayOverview needs, each already fetched.
type OverviewInput struct {
	Roster    []models.Student
	Today     []models.AttendanceRecord
	Yesterday []models.AttendanceRecord
	ThisWeek  []models.AttendanceRecord
	LastWeek  []models.AttendanceRecord
}

// TodayOverview compares today against yesterday and this week against last week.
// This week's denominator counts weekdays so far (Sunday counts zero);
// last week always counts a full school week.
func (e *Engine) TodayOverview(now time.Time, in OverviewInput) models.TodayOverview {
	total := len(in.Roster)

	presentToday := len(in.Today)
	presentYesterday := len(in.Yesterday)
	lateToday := e.countLate(in.Today)
	lateYesterday := e.countLate(in.Yesterday)

	weekRate := ratio(e.studentDays(in.ThisWeek, nil), total*e.daysSoFar(now))
	lastWeekRate := ratio(e.studentDays(in.LastWeek, nil), total*e.policy.SchoolDaysPerWeek)

	return models.TodayOverview{
		TotalAttendance: models.RateChange{Rate: weekRate, Change: weekRate - lastWeekRate},
		PresentToday:    models.CountChange{Count: presentToday, Change: presentToday - presentYesterday},
		AbsentToday: models.CountChange{
			Count:  total - presentToday,
			Change: (total - presentToday) - (total - presentYesterday),
		},
		LateToday: models.CountChange{Count: lateToday, Change: lateToday - lateYesterday},
	}
}
