package aggregation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// Wednesday; the week starts on Sunday 2024-05-12.
var wednesday = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func newEngine() *Engine {
	return New(DefaultPolicy(), time.UTC)
}

func makeRoster(course string, n int) []models.Student {
	out := make([]models.Student, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Student{
			StudentID: fmt.Sprintf("%s-%02d", course, i),
			FullName:  fmt.Sprintf("Student %s %02d", course, i),
			Course:    course,
		})
	}
	return out
}

func mark(studentID string, day time.Time, clock string) models.AttendanceRecord {
	return models.AttendanceRecord{StudentID: studentID, Date: day, Time: clock}
}

func utcDay(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 8, 0, 0, 0, time.UTC)
}

func TestIsLate(t *testing.T) {
	e := newEngine()
	cases := map[string]bool{
		"09:01":    true,
		"09:00":    false,
		"08:59":    false,
		"10:00":    true,
		"9:30":     true,
		"09:05 AM": true,
		"08:45 AM": false,
		"01:30 PM": true,
		"12:15 AM": false,
		"":         false,
		"soon":     false,
		"99:99":    false,
		"24:75":    false,
		"24:00":    false,
		"13:00 PM": false,
		"09:00:61": false,
	}
	for clock, want := range cases {
		assert.Equal(t, want, e.IsLate(clock), clock)
	}
}

func TestValidClock(t *testing.T) {
	for _, clock := range []string{"00:00", "23:59", "9:05", "09:00:30", "12:00 AM", "12:59 pm"} {
		assert.True(t, ValidClock(clock), clock)
	}
	for _, clock := range []string{"", "nine", "24:00", "99:99", "23:60", "0:30 AM", "13:15 PM", "10:00:60"} {
		assert.False(t, ValidClock(clock), clock)
	}
}

func TestRatioRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 13, ratio(10, 80))
	assert.Equal(t, 0, ratio(5, 0))
	assert.Equal(t, 110, ratio(22, 20))
	assert.Equal(t, 100, rate(22, 20))
	assert.Equal(t, 33, rate(1, 3))
	assert.Equal(t, 67, rate(2, 3))
}

func TestNewFillsPolicyDefaults(t *testing.T) {
	e := New(Policy{DefaultPageSize: 25}, nil)
	p := e.Policy()
	assert.Equal(t, 25, p.DefaultPageSize)
	assert.Equal(t, 20, p.SchoolDaysPerMonth)
	assert.Equal(t, 80, p.CourseAlertThreshold)
	assert.Equal(t, 60, p.StudentAlertThreshold)
	assert.Equal(t, 9, p.LateAfterHour)
	assert.Equal(t, time.Local, e.Location())
}
