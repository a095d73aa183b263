// Package timeutil holds the pure date and week-bucket helpers shared by the
// quiz services.
package timeutil

import "time"

// WeekNumber returns the ISO week bucket for t as isoYear*100+isoWeek,
// e.g. 202401 for the first ISO week of 2024. Weeks start on Monday.
func WeekNumber(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

// DateOf truncates t to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDate reports whether a and b fall on the same calendar day in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}

// ElapsedSeconds returns whole seconds between posted and answered. Negative
// values from clock skew are stored as-is rather than clamped.
func ElapsedSeconds(posted, answered time.Time) int64 {
	return int64(answered.Sub(posted).Seconds())
}
