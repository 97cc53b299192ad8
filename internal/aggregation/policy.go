package aggregation

// Policy holds the fixed constants behind every rate and alert.
type Policy struct {
	// SchoolDaysPerMonth is the assumed denominator for trailing-window rates.
	SchoolDaysPerMonth int
	// SchoolDaysPerWeek caps the days-so-far count and is last week's denominator.
	SchoolDaysPerWeek     int
	CourseAlertThreshold  int
	StudentAlertThreshold int
	// LateAfterHour and LateAfterMinute form the late cutoff; a mark is late
	// when strictly after it.
	LateAfterHour      int
	LateAfterMinute    int
	TrailingWindowDays int
	DefaultPageSize    int
}

// DefaultPolicy returns the production values.
func DefaultPolicy() Policy {
	return Policy{
		SchoolDaysPerMonth:    20,
		SchoolDaysPerWeek:     5,
		CourseAlertThreshold:  80,
		StudentAlertThreshold: 60,
		LateAfterHour:         9,
		LateAfterMinute:       0,
		TrailingWindowDays:    30,
		DefaultPageSize:       10,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.SchoolDaysPerMonth <= 0 {
		p.SchoolDaysPerMonth = d.SchoolDaysPerMonth
	}
	if p.SchoolDaysPerWeek <= 0 {
		p.SchoolDaysPerWeek = d.SchoolDaysPerWeek
	}
	if p.CourseAlertThreshold <= 0 {
		p.CourseAlertThreshold = d.CourseAlertThreshold
	}
	if p.StudentAlertThreshold <= 0 {
		p.StudentAlertThreshold = d.StudentAlertThreshold
	}
	if p.LateAfterHour <= 0 && p.LateAfterMinute <= 0 {
		p.LateAfterHour, p.LateAfterMinute = d.LateAfterHour, d.LateAfterMinute
	}
	if p.TrailingWindowDays <= 0 {
		p.TrailingWindowDays = d.TrailingWindowDays
	}
	if p.DefaultPageSize <= 0 {
		p.DefaultPageSize = d.DefaultPageSize
	}
	return p
}
