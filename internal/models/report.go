package models

// DailySummary counts attendance for one calendar day.
type DailySummary struct {
	Date            string `json:"date"`
	TotalStudents   int    `json:"total_students"`
	PresentStudents int    `json:"present_students"`
	AbsentStudents  int    `json:"absent_students"`
	AttendanceRate  int    `json:"attendance_rate"`
}

// SeriesPoint is one bucket of the weekly or monthly series.
// Weekly points carry Date and Absent, monthly points carry Month.
type SeriesPoint struct {
	Name       string `json:"name"`
	Attendance int    `json:"attendance"`
	Absent     *int   `json:"absent,omitempty"`
	Date       string `json:"date,omitempty"`
	Month      int    `json:"month,omitempty"`
}

// CourseRate is the trailing-window attendance rate of a course.
type CourseRate struct {
	Name           string `json:"name"`
	AttendanceRate int    `json:"attendance_rate"`
}

// StudentRow is one line of the paginated student report.
type StudentRow struct {
	StudentID   string           `json:"id"`
	Name        string           `json:"name"`
	Course      string           `json:"course"`
	Status      AttendanceStatus `json:"status"`
	DaysPresent int              `json:"days"`
	Percentage  int              `json:"percentage"`
}

// StudentPage is a page of student rows.
type StudentPage struct {
	Rows       []StudentRow `json:"students"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int          `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// AlertSeverity classifies alerts.
type AlertSeverity string

const (
	AlertWarning AlertSeverity = "warning"
	AlertDanger  AlertSeverity = "danger"
)

// Alert is recomputed on every request and has no identity.
type Alert struct {
	Type    AlertSeverity `json:"type"`
	Message string        `json:"message"`
}

// DailyBucket is one non-empty day of a date-range report.
type DailyBucket struct {
	Date            string `json:"date"`
	TotalStudents   int    `json:"total_students"`
	PresentStudents int    `json:"present_students"`
	AbsentStudents  int    `json:"absent_students"`
	AttendanceRate  int    `json:"attendance_rate"`
}

// TodayOverview is the headline card set of the reports dashboard.
type TodayOverview struct {
	TotalAttendance RateChange  `json:"total_attendance"`
	PresentToday    CountChange `json:"present_today"`
	AbsentToday     CountChange `json:"absent_today"`
	LateToday       CountChange `json:"late_today"`
}

// RateChange is a percentage with its delta against the previous period.
type RateChange struct {
	Rate   int `json:"rate"`
	Change int `json:"change"`
}

// CountChange is a head count with its delta against the previous day.
type CountChange struct {
	Count  int `json:"count"`
	Change int `json:"change"`
}
