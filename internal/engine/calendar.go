package engine

import (
	"time"

	"github.com/fieldcollect/collection-engine/pkg/utils"
)

// nationalHolidays maps a jurisdiction code to its recurring national
// holidays as month-day pairs. Matching is by month and day only; moveable
// feasts and leap-year shifts are deliberately not modeled.
var nationalHolidays = map[string][]string{
	"CO": {"01-01", "05-01", "07-20", "08-07", "12-08", "12-25"},
	"AR": {"01-01", "03-24", "04-02", "05-01", "05-25", "06-20", "07-09", "12-08", "12-25"},
	"BO": {"01-01", "01-22", "05-01", "06-21", "08-06", "11-02", "12-25"},
	"BR": {"01-01", "04-21", "05-01", "09-07", "10-12", "11-02", "11-15", "12-25"},
	"CL": {"01-01", "05-01", "05-21", "06-21", "07-16", "08-15", "09-18", "09-19", "10-31", "11-01", "12-08", "12-25"},
	"EC": {"01-01", "05-01", "05-24", "08-10", "10-09", "11-02", "11-03", "12-25"},
	"GY": {"01-01", "02-23", "05-01", "05-26", "08-01", "12-25", "12-26"},
	"PY": {"01-01", "03-01", "05-01", "05-14", "05-15", "06-12", "08-15", "09-29", "12-08", "12-25"},
	"PE": {"01-01", "05-01", "06-29", "07-28", "07-29", "08-30", "10-08", "11-01", "12-08", "12-25"},
	"SR": {"01-01", "05-01", "07-01", "11-25", "12-25", "12-26"},
	"UY": {"01-01", "05-01", "07-18", "08-25", "12-25"},
	"VE": {"01-01", "04-19", "05-01", "06-24", "07-05", "07-24", "10-12", "12-25"},
	"CA": {"01-01", "07-01", "11-11", "12-25", "12-26"},
	"US": {"01-01", "07-04", "11-11", "12-25"},
	"MX": {"01-01", "02-05", "03-21", "05-01", "09-16", "11-20", "12-25"},
	"BZ": {"01-01", "01-15", "03-09", "05-01", "09-10", "09-21", "10-12", "11-19", "12-25", "12-26"},
	"CR": {"01-01", "04-11", "05-01", "07-25", "08-02", "08-15", "09-15", "12-01", "12-25"},
	"SV": {"01-01", "05-01", "06-17", "08-06", "09-15", "11-02", "12-25"},
	"GT": {"01-01", "05-01", "06-30", "09-15", "10-20", "11-01", "12-25"},
	"HN": {"01-01", "04-14", "05-01", "09-15", "10-03", "10-12", "10-21", "12-25"},
	"NI": {"01-01", "05-01", "07-19", "09-14", "09-15", "12-08", "12-25"},
	"PA": {"01-01", "01-09", "05-01", "11-03", "11-05", "11-10", "11-28", "12-08", "12-25"},
	"DO": {"01-01", "01-21", "01-26", "02-27", "05-01", "08-16", "09-24", "11-06", "12-25"},
	"CU": {"01-01", "05-01", "07-26", "10-10", "12-25"},
	"HT": {"01-01", "01-02", "05-01", "05-18", "10-17", "11-18", "12-25"},
	"JM": {"01-01", "05-23", "08-01", "08-06", "10-16", "12-25", "12-26"},
	"TT": {"01-01", "03-30", "05-30", "06-19", "08-01", "08-31", "09-24", "12-25", "12-26"},
	"BS": {"01-01", "07-10", "12-25", "12-26"},
	"BB": {"01-01", "01-21", "04-28", "08-01", "11-30", "12-25", "12-26"},
	"LC": {"01-01", "02-22", "12-13", "12-25", "12-26"},
	"VC": {"01-01", "03-14", "10-27", "12-25", "12-26"},
	"GD": {"01-01", "02-07", "12-25", "12-26"},
	"AG": {"01-01", "11-01", "12-09", "12-25", "12-26"},
	"DM": {"01-01", "11-03", "11-04", "12-25", "12-26"},
	"KN": {"01-01", "09-19", "12-25", "12-26"},
}

// DateSet is a set of ISO (YYYY-MM-DD) dates, used for the loan-specific
// custom holidays that are independent of jurisdiction.
type DateSet map[string]struct{}

// NewDateSet builds a DateSet from ISO date strings.
func NewDateSet(dates []string) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// Contains reports whether the calendar date is in the set.
func (s DateSet) Contains(date time.Time) bool {
	_, ok := s[utils.FormatDate(date)]
	return ok
}

// Calendar decides whether a date is a non-collection day: the weekly rest
// day, a national holiday of the loan's jurisdiction, or a loan-specific
// custom holiday.
type Calendar struct {
	restDay time.Weekday
}

// NewCalendar builds a calendar with the given weekly rest day.
func NewCalendar(restDay time.Weekday) *Calendar {
	return &Calendar{restDay: restDay}
}

// DefaultCalendar uses Sunday as the weekly rest day.
func DefaultCalendar() *Calendar {
	return NewCalendar(time.Sunday)
}

// IsExcluded reports whether no installment may fall on date, and whether
// the date counts toward arrears. Unknown jurisdiction codes simply carry
// no national holidays.
func (c *Calendar) IsExcluded(date time.Time, jurisdiction string, custom DateSet) bool {
	if date.Weekday() == c.restDay {
		return true
	}
	key := utils.MonthDayKey(date)
	for _, holiday := range nationalHolidays[jurisdiction] {
		if holiday == key {
			return true
		}
	}
	return custom.Contains(date)
}
