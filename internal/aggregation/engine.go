// Package aggregation turns a roster snapshot and materialised attendance
// records into report statistics. Everything here is pure; callers fetch.
package aggregation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// Engine computes attendance statistics. It is safe for concurrent use.
type Engine struct {
	policy Policy
	loc    *time.Location
}

// New builds an engine. A nil location means the server's local zone.
func New(policy Policy, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{policy: policy.withDefaults(), loc: loc}
}

// Policy returns the effective policy.
func (e *Engine) Policy() Policy { return e.policy }

// Location returns the zone used to cut calendar days.
func (e *Engine) Location() *time.Location { return e.loc }

// IsLate reports whether an HH:MM mark is strictly after the late cutoff.
// A trailing AM/PM is honoured; unparseable values are never late.
func (e *Engine) IsLate(clock string) bool {
	hour, minute, ok := parseClock(clock)
	if !ok {
		return false
	}
	return hour > e.policy.LateAfterHour || (hour == e.policy.LateAfterHour && minute > e.policy.LateAfterMinute)
}

func parseClock(raw string) (int, int, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	meridiem := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(leadingDigits(parts[1]))
	if err != nil {
		return 0, 0, false
	}

	if minute < 0 || minute > 59 {
		return 0, 0, false
	}
	if len(parts) > 2 {
		sec, err := strconv.Atoi(leadingDigits(parts[2]))
		if err != nil || sec < 0 || sec > 59 {
			return 0, 0, false
		}
	}
	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
	} else if hour < 0 || hour > 23 {
		return 0, 0, false
	}

	switch {
	case meridiem == "PM" && hour < 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}
	return hour, minute, true
}

// ValidClock reports whether raw is a wall-clock time IsLate can classify.
func ValidClock(raw string) bool {
	_, _, ok := parseClock(raw)
	return ok
}

func leadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// ratio is round(num/den*100) with round-half-up, 0 when den is not positive.
func ratio(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Floor(float64(num)/float64(den)*100 + 0.5))
}

// rate is ratio clamped to [0,100] for head-count percentages.
func rate(num, den int) int {
	r := ratio(num, den)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// studentDays counts distinct (student, day) pairs.
func (e *Engine) studentDays(records []models.AttendanceRecord, keep func(models.AttendanceRecord) bool) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		seen[r.StudentID+"|"+e.DayKey(r.Date)] = struct{}{}
	}
	return len(seen)
}

// daysByStudent maps each student to their set of distinct day keys.
func (e *Engine) daysByStudent(records []models.AttendanceRecord) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, r := range records {
		days, ok := out[r.StudentID]
		if !ok {
			days = make(map[string]struct{})
			out[r.StudentID] = days
		}
		days[e.DayKey(r.Date)] = struct{}{}
	}
	return out
}

func (e *Engine) inDay(records []models.AttendanceRecord, day time.Time) []models.AttendanceRecord {
	start, end := e.DayBounds(day)
	var out []models.AttendanceRecord
	for _, r := range records {
		if within(r.Date, start, end) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) countLate(records []models.AttendanceRecord) int {
	late := 0
	for _, r := range records {
		if e.IsLate(r.Time) {
			late++
		}
	}
	return late
}

func (e *Engine) daysSoFar(now time.Time) int {
	return min(int(now.In(e.loc).Weekday()), e.policy.SchoolDaysPerWeek)
}
