// Package calendar defines the market-calendar collaborator. Real
// holiday data lives outside this system; the pipeline only asks one
// question.
package calendar

import "time"

// Calendar reports whether a day is a market holiday.
type Calendar interface {
	IsHoliday(day time.Time) bool
}

// Func is a function adapter for Calendar.
type Func func(time.Time) bool

func (f Func) IsHoliday(day time.Time) bool {
	return f(day)
}

// Static is a fixed holiday list, keyed by calendar date. Weekends are
// always holidays.
type Static struct {
	days map[string]bool
}

// NewStatic builds a Static calendar from a list of YYYY-MM-DD dates.
func NewStatic(dates []string) *Static {
	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		days[d] = true
	}
	return &Static{days: days}
}

func (s *Static) IsHoliday(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return s.days[day.Format("2006-01-02")]
}
