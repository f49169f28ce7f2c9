package birthday

import "time"

// Civil truncates a timestamp to its calendar date, normalized to UTC so date
// comparisons are free of wall-clock noise.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Anchored re-anchors a stored birthday to the given year. The stored year is
// ignored; only month and day matter. A Feb 29 birthday clamps to Feb 28 in
// non-leap years — that is the documented policy, and tests pin it.
func Anchored(birthday time.Time, year int) time.Time {
	_, m, d := birthday.Date()
	if m == time.February && d == 29 && !isLeapYear(year) {
		d = 28
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

// RecursInWindow reports whether the birthday's annual recurrence falls inside
// the half-open-then-closed interval (start, end] on civil dates. The candidate
// is anchored to end's year; if that lands after end, the previous year's
// recurrence is used instead.
func RecursInWindow(birthday, start, end time.Time) bool {
	s, e := Civil(start), Civil(end)
	cand := Anchored(birthday, e.Year())
	if cand.After(e) {
		cand = Anchored(birthday, e.Year()-1)
	}
	return cand.After(s) && !cand.After(e)
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
