package models

import "time"

// AttendanceStatus is the derived status of a student for a given day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is an immutable mark, at most one per student per calendar day.
// FullName and Course are copied from the roster at mark time.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Course    string    `db:"course" json:"course"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	// Day is the calendar day the mark counts for; unique per student.
	Day       time.Time `db:"day" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceFilter scopes record reads to a half-open window and optional students.
type AttendanceFilter struct {
	From       time.Time
	To         time.Time
	StudentIDs []string
}
