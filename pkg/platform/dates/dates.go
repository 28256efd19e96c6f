// Package dates handles calendar-day arithmetic in the gym's local time zone.
//
// Calendar dates (a day pass's valid date) are represented as midnight UTC of
// that civil date so they round-trip through a Postgres DATE column unchanged.
package dates

import "time"

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns [start, end) of t's day in loc. DST days are 23 or 25 hours long.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// Civil normalizes t to midnight UTC of its own calendar date, ignoring its location.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the civil date of now as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return Civil(now.In(loc))
}
