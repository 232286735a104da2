package normalize

import (
	"strings"
	"time"
)

// Common date layouts found in claim exports.
var dateFormats = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in multiple common formats and
// truncates it to a UTC calendar day.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			d := Day(t)
			return &d
		}
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
