package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

func TestWeeklySeries(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 4)
	records := []models.AttendanceRecord{
		mark("CS101-01", utcDay(time.May, 13), "08:00"),
		mark("CS101-02", utcDay(time.May, 13), "08:00"),
		mark("CS101-03", utcDay(time.May, 13), "08:00"),
		mark("CS101-01", utcDay(time.May, 15), "08:00"),
		// Previous week, ignored.
		mark("CS101-01", utcDay(time.May, 10), "08:00"),
	}

	got := e.WeeklySeries(wednesday, roster, records)
	require.Len(t, got, 7)

	labels := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for i, p := range got {
		assert.Equal(t, labels[i], p.Name)
		require.NotNil(t, p.Absent)
		assert.Equal(t, 100, p.Attendance+*p.Absent)
	}
	assert.Equal(t, "2024-05-12", got[0].Date)
	assert.Equal(t, "2024-05-18", got[6].Date)
	assert.Equal(t, 75, got[1].Attendance)
	assert.Equal(t, 25, got[3].Attendance)
	assert.Equal(t, 0, got[2].Attendance)
}

func TestWeeklySeriesEmptyRoster(t *testing.T) {
	got := newEngine().WeeklySeries(wednesday, nil, nil)
	require.Len(t, got, 7)
	for _, p := range got {
		assert.Equal(t, 0, p.Attendance)
		assert.Equal(t, 100, *p.Absent)
	}
}

func TestMonthlySeries(t *testing.T) {
	e := newEngine()
	roster := makeRoster("CS101", 2)
	records := []models.AttendanceRecord{
		mark("CS101-01", utcDay(time.May, 1), "08:00"),
		mark("CS101-01", utcDay(time.May, 1).Add(time.Hour), "09:00"),
		mark("CS101-01", utcDay(time.May, 2), "08:00"),
		mark("CS101-02", utcDay(time.May, 2), "08:00"),
		mark("CS101-01", time.Date(2023, time.May, 2, 8, 0, 0, 0, time.UTC), "08:00"),
	}

	got := e.MonthlySeries(2024, roster, records)
	require.Len(t, got, 12)

	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for i, p := range got {
		assert.Equal(t, labels[i], p.Name)
		assert.Equal(t, i+1, p.Month)
		assert.Nil(t, p.Absent)
	}
	// 3 distinct pairs / (2 students * 23 business days) = 6.52%.
	assert.Equal(t, 7, got[4].Attendance)
	assert.Equal(t, 0, got[0].Attendance)
}
