package aggregation

import (
	"sort"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// Courses returns the distinct roster courses in ascending order.
func Courses(roster []models.Student) []string {
	seen := make(map[string]struct{})
	var courses []string
	for _, s := range roster {
		if _, ok := seen[s.Course]; ok {
			continue
		}
		seen[s.Course] = struct{}{}
		courses = append(courses, s.Course)
	}
	sort.Strings(courses)
	return courses
}

// courseMembers maps course to its student ids, and student id to course.
func courseMembers(roster []models.Student) (map[string][]string, map[string]string) {
	byCourse := make(map[string][]string)
	courseOf := make(map[string]string, len(roster))
	for _, s := range roster {
		byCourse[s.Course] = append(byCourse[s.Course], s.StudentID)
		courseOf[s.StudentID] = s.Course
	}
	return byCourse, courseOf
}

// CourseRates computes each course's rate over the trailing window as distinct
// student-days over members times the monthly school-day assumption. Records are
// attributed through the roster, not the copy stored on the record.
func (e *Engine) CourseRates(roster []models.Student, records []models.AttendanceRecord) []models.CourseRate {
	byCourse, courseOf := courseMembers(roster)

	pairs := make(map[string]map[string]struct{})
	for _, r := range records {
		course, ok := courseOf[r.StudentID]
		if !ok {
			continue
		}
		set, ok := pairs[course]
		if !ok {
			set = make(map[string]struct{})
			pairs[course] = set
		}
		set[r.StudentID+"|"+e.DayKey(r.Date)] = struct{}{}
	}

	courses := Courses(roster)
	rates := make([]models.CourseRate, 0, len(courses))
	for _, course := range courses {
		rates = append(rates, models.CourseRate{
			Name:           course,
			AttendanceRate: ratio(len(pairs[course]), len(byCourse[course])*e.policy.SchoolDaysPerMonth),
		})
	}
	return rates
}

// StudentPageQuery selects one page of the optionally course-filtered roster.
type StudentPageQuery struct {
	Page     int
	PageSize int
	// Course filters the roster; empty or "all" keeps everyone.
	Course string
}

// FilterRoster applies the course filter preserving roster order.
func FilterRoster(roster []models.Student, course string) []models.Student {
	if course == "" || course == "all" {
		return roster
	}
	out := make([]models.Student, 0, len(roster))
	for _, s := range roster {
		if s.Course == course {
			out = append(out, s)
		}
	}
	return out
}

// Normalize clamps the page to at least 1 and defaults the page size.
func (q StudentPageQuery) Normalize(defaultSize int) StudentPageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultSize
	}
	return q
}

// Bounds returns the half-open row range [from, to) of a normalized query
// over total rows. Pages past the end yield the empty range [total, total).
func (q StudentPageQuery) Bounds(total int) (int, int) {
	if q.Page < 1 || q.PageSize < 1 || q.Page-1 > total/q.PageSize {
		return total, total
	}
	from := (q.Page - 1) * q.PageSize
	return from, from + min(q.PageSize, total-from)
}

// TotalPages is ceil(total/size) without the overflow of total+size-1.
func TotalPages(total, size int) int {
	if size < 1 {
		return 0
	}
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}

// StudentPage slices the filtered roster and derives each row's status and
// trailing-window percentage.
func (e *Engine) StudentPage(roster []models.Student, today, trailing []models.AttendanceRecord, q StudentPageQuery) models.StudentPage {
	q = q.Normalize(e.policy.DefaultPageSize)
	filtered := FilterRoster(roster, q.Course)
	total := len(filtered)

	from, to := q.Bounds(total)
	pageRows := filtered[from:to]

	todayByStudent := make(map[string]models.AttendanceRecord, len(today))
	for _, r := range today {
		if _, ok := todayByStudent[r.StudentID]; !ok {
			todayByStudent[r.StudentID] = r
		}
	}
	days := e.daysByStudent(trailing)

	rows := make([]models.StudentRow, 0, len(pageRows))
	for _, s := range pageRows {
		status := models.AttendanceStatusAbsent
		if r, ok := todayByStudent[s.StudentID]; ok {
			status = models.AttendanceStatusPresent
			if e.IsLate(r.Time) {
				status = models.AttendanceStatusLate
			}
		}
		present := len(days[s.StudentID])
		rows = append(rows, models.StudentRow{
			StudentID:   s.StudentID,
			Name:        s.FullName,
			Course:      s.Course,
			Status:      status,
			DaysPresent: present,
			Percentage:  ratio(present, e.policy.SchoolDaysPerMonth),
		})
	}

	return models.StudentPage{
		Rows:       rows,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: total,
		TotalPages: TotalPages(total, q.PageSize),
	}
}
