package aggregation

import (
	"fmt"
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// Alerts evaluates course warnings then student dangers. thisWeek holds records
// since the start of now's week; trailing holds the trailing-window records.
func (e *Engine) Alerts(now time.Time, roster []models.Student, thisWeek, trailing []models.AttendanceRecord) []models.Alert {
	alerts := e.courseAlerts(now, roster, thisWeek)
	return append(alerts, e.studentAlerts(roster, trailing)...)
}

func (e *Engine) courseAlerts(now time.Time, roster []models.Student, thisWeek []models.AttendanceRecord) []models.Alert {
	byCourse, courseOf := courseMembers(roster)
	daysSoFar := e.daysSoFar(now)

	var alerts []models.Alert
	for _, course := range Courses(roster) {
		members := len(byCourse[course])
		if members == 0 {
			continue
		}
		pairs := e.studentDays(thisWeek, func(r models.AttendanceRecord) bool {
			return courseOf[r.StudentID] == course
		})
		weekRate := ratio(pairs, members*daysSoFar)
		if weekRate < e.policy.CourseAlertThreshold {
			alerts = append(alerts, models.Alert{
				Type:    models.AlertWarning,
				Message: fmt.Sprintf("Course attendance for %s has dropped below %d%% this week. Consider taking action.", course, weekRate),
			})
		}
	}
	return alerts
}

func (e *Engine) studentAlerts(roster []models.Student, trailing []models.AttendanceRecord) []models.Alert {
	days := e.daysByStudent(trailing)

	var alerts []models.Alert
	for _, s := range roster {
		studentRate := ratio(len(days[s.StudentID]), e.policy.SchoolDaysPerMonth)
		if studentRate < e.policy.StudentAlertThreshold {
			alerts = append(alerts, models.Alert{
				Type:    models.AlertDanger,
				Message: fmt.Sprintf("%s has very low attendance (%d%%) in the past month.", s.FullName, studentRate),
			})
		}
	}
	return alerts
}
