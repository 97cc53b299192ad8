package aggregation

import "time"

const dayKeyLayout = "2006-01-02"

// StartOfDay truncates t to midnight in the engine location.
func (e *Engine) StartOfDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// StartOfWeek returns midnight of the Sunday at or before t.
func (e *Engine) StartOfWeek(t time.Time) time.Time {
	day := e.StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DayBounds returns the half-open bucket [start, start+1 day) containing t.
func (e *Engine) DayBounds(t time.Time) (time.Time, time.Time) {
	start := e.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// WeekBounds returns [Sunday, next Sunday) for the week containing t.
func (e *Engine) WeekBounds(t time.Time) (time.Time, time.Time) {
	start := e.StartOfWeek(t)
	return start, start.AddDate(0, 0, 7)
}

// YearBounds returns [Jan 1, next Jan 1) of year.
func (e *Engine) YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, e.loc)
	return start, start.AddDate(1, 0, 0)
}

// TrailingWindowStart is the lower bound of the trailing window ending at now.
// The bound is not truncated to midnight.
func (e *Engine) TrailingWindowStart(now time.Time) time.Time {
	return now.In(e.loc).AddDate(0, 0, -e.policy.TrailingWindowDays)
}

// DayKey formats t as YYYY-MM-DD in the engine location.
func (e *Engine) DayKey(t time.Time) string {
	return t.In(e.loc).Format(dayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD date as midnight in the engine location.
func (e *Engine) ParseDay(raw string) (time.Time, error) {
	return time.ParseInLocation(dayKeyLayout, raw, e.loc)
}

// BusinessDaysInMonth counts Monday to Friday from the 1st to the last day inclusive.
func BusinessDaysInMonth(year int, month time.Month) int {
	count := 0
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
