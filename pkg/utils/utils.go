package utils

import (
	"fmt"
	"time"
)

// ISODate is the calendar-date layout used across the engine.
const ISODate = "2006-01-02"

// DateOnly strips the time-of-day component, keeping year/month/day in UTC.
// All engine date arithmetic runs on values normalized this way.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOnly(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(ISODate)
}

// MonthDayKey renders the recurring month-day key ("MM-DD") used by the
// national holiday table.
func MonthDayKey(t time.Time) string {
	return fmt.Sprintf("%02d-%02d", int(t.Month()), t.Day())
}
