package model

import "time"

// DateLayout is the wire format of calendar dates (orders, till records).
const DateLayout = "2006-01-02"

// CalendarDate truncates t to its calendar date in t's own location and
// returns it as midnight UTC, which is how postgres `date` columns round-trip.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t), nil
}
