package aggregation

import (
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

var (
	weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	monthLabels   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// WeeklySeries returns seven points, Sun..Sat, for the week containing ref.
// Attendance is the day's record count over the roster; absent is its complement.
func (e *Engine) WeeklySeries(ref time.Time, roster []models.Student, records []models.AttendanceRecord) []models.SeriesPoint {
	total := len(roster)
	start := e.StartOfWeek(ref)

	counts := make([]int, 7)
	for _, r := range records {
		for i := range counts {
			dayStart := start.AddDate(0, 0, i)
			if within(r.Date, dayStart, dayStart.AddDate(0, 0, 1)) {
				counts[i]++
				break
			}
		}
	}

	points := make([]models.SeriesPoint, 7)
	for i := range points {
		attendance := rate(counts[i], total)
		absent := 100 - attendance
		points[i] = models.SeriesPoint{
			Name:       weekdayLabels[i],
			Attendance: attendance,
			Absent:     &absent,
			Date:       e.DayKey(start.AddDate(0, 0, i)),
		}
	}
	return points
}

// MonthlySeries returns twelve points, Jan..Dec, for year. Each month's rate is
// distinct student-days over roster size times the month's business days.
func (e *Engine) MonthlySeries(year int, roster []models.Student, records []models.AttendanceRecord) []models.SeriesPoint {
	total := len(roster)

	pairs := make([]map[string]struct{}, 12)
	for i := range pairs {
		pairs[i] = make(map[string]struct{})
	}
	for _, r := range records {
		local := r.Date.In(e.loc)
		if local.Year() != year {
			continue
		}
		pairs[local.Month()-1][r.StudentID+"|"+e.DayKey(local)] = struct{}{}
	}

	points := make([]models.SeriesPoint, 12)
	for i := range points {
		month := time.Month(i + 1)
		points[i] = models.SeriesPoint{
			Name:       monthLabels[i],
			Attendance: rate(len(pairs[i]), total*BusinessDaysInMonth(year, month)),
			Month:      i + 1,
		}
	}
	return points
}
