package models

import "time"

// CourseStatus is the lifecycle stage shown on the course catalogue.
type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "active"
	CourseStatusUpcoming  CourseStatus = "upcoming"
	CourseStatusCompleted CourseStatus = "completed"
)

// Valid reports whether the status is supported.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusActive, CourseStatusUpcoming, CourseStatusCompleted:
		return true
	default:
		return false
	}
}

// Course is a catalogue entry. Code is unique.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Code        string       `db:"code" json:"code"`
	Title       string       `db:"title" json:"title"`
	Instructor  string       `db:"instructor" json:"instructor"`
	Description string       `db:"description" json:"description"`
	Status      CourseStatus `db:"status" json:"status"`
	Students    int          `db:"students" json:"students"`
	Duration    string       `db:"duration" json:"duration"`
	Progress    int          `db:"progress" json:"progress"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// CourseFilter drives catalogue search.
type CourseFilter struct {
	Search   string
	Page     int
	PageSize int
}
